package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"inkwell/app/controllers"
	"inkwell/app/logger"
	"inkwell/app/repositories"
	"inkwell/app/routes"
	"inkwell/app/search"
	"inkwell/app/services"
	"inkwell/config"

	"github.com/dgraph-io/badger/v4"
)

// HandleCommand dispatches a CLI subcommand
func HandleCommand(args []string) {
	if len(args) < 1 {
		printHelp()
		os.Exit(1)
	}

	cmd := args[0]
	switch cmd {
	case "serve":
		serve()
	case "init":
		initDb()
	case "clean":
		clean()
	case "backup":
		backup()
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			os.Exit(1)
		}
		restore(args[1])
	case "createadmin":
		if len(args) < 4 {
			fmt.Println("Error: createadmin requires <username> <email> <password>")
			os.Exit(1)
		}
		createAdmin(args[1], args[2], args[3])
	case "reindex":
		reindex()
	case "help":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

// printHelp prints help for the CLI subcommands
func printHelp() {
	helpText := `Usage: inkwell <command> [options]

Commands:
  serve                          Run the blog server
  init                           Initialize a new empty database
  clean                          Remove the blog database and search index
  backup                         Create a backup of the database
  restore [file]                 Restore database from backup
  createadmin <user> <email> <password>
                                 Create a staff account
  reindex                        Rebuild the search index from storage
  version                        Show version information
  help                           Display this help message
`
	fmt.Println(helpText)
}

func badgerPath(cfg *config.Config) string {
	return filepath.Join(cfg.Data.Dir, "badger")
}

func openDb(cfg *config.Config) *badger.DB {
	opts := badger.DefaultOptions(badgerPath(cfg))
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open Badger DB: %v", err)
	}
	return db
}

// serve starts the blog server
func serve() {
	cfg := config.MustLoad()
	slogger := logger.New(cfg.Env)
	slog.SetDefault(slogger)

	secret := cfg.Auth.Secret
	if secret == "" {
		// Ephemeral secret, sessions will not survive a restart.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("Failed to generate auth secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
		slogger.Warn("auth.secret is not set, using a random ephemeral secret")
	}

	db := openDb(cfg)
	defer db.Close()

	index, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	postRepo := repositories.NewBadgerPostRepository(db)

	// A fresh or wiped index is repopulated from storage before serving.
	if count, err := index.Count(); err == nil && count == 0 {
		if err := index.Rebuild(postRepo); err != nil {
			slogger.Error("search index rebuild failed", "error", err)
		}
	}

	commentRepo := repositories.NewBadgerCommentRepository(db)
	categoryRepo := repositories.NewBadgerCategoryRepository(db)
	userRepo := repositories.NewBadgerUserRepository(db)
	tokenRepo := repositories.NewBadgerTokenRepository(db)

	postService := services.NewPostService(postRepo, commentRepo, categoryRepo, index)
	commentService := services.NewCommentService(commentRepo, postRepo)
	categoryService := services.NewCategoryService(categoryRepo, postService)
	authService := services.NewAuthService(userRepo, tokenRepo, []byte(secret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	router := routes.SetupRoutes(routes.Controllers{
		Posts:      controllers.NewPostController(postService, categoryService),
		Comments:   controllers.NewCommentController(commentService),
		Categories: controllers.NewCategoryController(categoryService, postService),
		Auth:       controllers.NewAuthController(authService, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		Search:     controllers.NewSearchController(index),
	}, authService, slogger, cfg.Data.StaticDir)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)
	slogger.Info("starting blog server", "addr", addr, "env", cfg.Env)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initDb initializes a new empty database
func initDb() {
	cfg := config.MustLoad()
	path := badgerPath(cfg)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db := openDb(cfg)
	defer db.Close()

	fmt.Println("Database initialized successfully")
}

// clean removes the database and the search index
func clean() {
	cfg := config.MustLoad()
	path := badgerPath(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("Database is already clean (does not exist)")
		return
	}

	fmt.Print("Are you sure you want to clean the database? This cannot be undone. [y/N] ")
	var response string
	fmt.Scanln(&response)
	if response != "y" && response != "Y" {
		fmt.Println("Operation cancelled")
		return
	}

	if err := os.RemoveAll(path); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	if err := os.RemoveAll(cfg.Search.IndexPath); err != nil {
		log.Fatalf("Failed to clean search index: %v", err)
	}
	fmt.Println("Database cleaned successfully")
}

// backup creates a backup of the database
func backup() {
	cfg := config.MustLoad()
	if _, err := os.Stat(badgerPath(cfg)); os.IsNotExist(err) {
		fmt.Println("No database exists to backup")
		return
	}

	backupDir := filepath.Join(cfg.Data.Dir, "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		log.Fatalf("Failed to create backup directory: %v", err)
	}

	db := openDb(cfg)
	defer db.Close()

	backupFile := filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	f, err := os.Create(backupFile)
	if err != nil {
		log.Fatalf("Failed to create backup file: %v", err)
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		log.Fatalf("Failed to backup database: %v", err)
	}

	fmt.Printf("Database backed up successfully to %s\n", backupFile)
}

// restore restores the database from a backup
func restore(backupFile string) {
	cfg := config.MustLoad()
	if _, err := os.Stat(backupFile); os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return
	}

	path := badgerPath(cfg)
	if _, err := os.Stat(path); err == nil {
		fmt.Print("Existing database found. Do you want to replace it? [y/N] ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Operation cancelled")
			return
		}
		if err := os.RemoveAll(path); err != nil {
			log.Fatalf("Failed to remove existing database: %v", err)
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db := openDb(cfg)
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		log.Fatalf("Failed to open backup file: %v", err)
	}
	defer f.Close()

	if err := db.Load(f, 4); err != nil {
		log.Fatalf("Failed to restore database: %v", err)
	}

	fmt.Println("Database restored successfully")
	fmt.Println("Run 'inkwell reindex' to rebuild the search index")
}

// createAdmin creates a staff account
func createAdmin(username, email, password string) {
	cfg := config.MustLoad()
	db := openDb(cfg)
	defer db.Close()

	userRepo := repositories.NewBadgerUserRepository(db)
	tokenRepo := repositories.NewBadgerTokenRepository(db)
	auth := services.NewAuthService(userRepo, tokenRepo, []byte("unused"), time.Minute, time.Minute)

	user, _, err := auth.Register(username, email, password)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	user.Staff = true
	if err := userRepo.Update(user); err != nil {
		log.Fatalf("Failed to mark user as staff: %v", err)
	}
	fmt.Printf("Staff account %q created (id %d)\n", user.Username, user.ID)
}

// reindex rebuilds the search index from the published posts in storage
func reindex() {
	cfg := config.MustLoad()
	db := openDb(cfg)
	defer db.Close()

	index, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	if err := index.Rebuild(repositories.NewBadgerPostRepository(db)); err != nil {
		log.Fatalf("Failed to rebuild search index: %v", err)
	}

	count, err := index.Count()
	if err != nil {
		log.Fatalf("Failed to count indexed posts: %v", err)
	}
	fmt.Printf("Search index rebuilt, %d posts indexed\n", count)
}
