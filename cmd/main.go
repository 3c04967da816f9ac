package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pot-code/course-reader/internal/content"
	"github.com/pot-code/course-reader/internal/dashboard"
	infra "github.com/pot-code/course-reader/internal/infrastructure"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"github.com/pot-code/course-reader/internal/infrastructure/logging"
	"github.com/pot-code/course-reader/internal/interfaces/rest"
	"github.com/pot-code/course-reader/internal/progress"
	"github.com/pot-code/course-reader/internal/render"
	"github.com/pot-code/course-reader/internal/user"
	"go.uber.org/zap"
)

// stores repositories bound to the configured backend
type stores struct {
	pinger   driver.Pinger
	progress progress.ProgressRepository
	user     user.UserRepository
	close    func(ctx context.Context) error
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	st, err := openStores(option, logger)
	if err != nil {
		logger.Fatal("Failed to open progress store", zap.Error(err), zap.String("store.driver", option.Store.Driver))
	}
	defer st.close(context.Background())

	defaults := content.DefaultDefaults()
	defaults.Lang = option.Content.DefaultLang
	defaults.Order = option.Content.DefaultOrder
	Resolver := content.NewFileResolver(os.DirFS(option.Content.Dir), defaults, logger)
	if _, err := Resolver.ListCourses(context.Background()); err != nil {
		logger.Fatal("Failed to load course manifest", zap.Error(err), zap.String("content.dir", option.Content.Dir))
	}

	Renderer, err := render.NewMarkdownRenderer(option.Markdown.HighlightStyle)
	if err != nil {
		logger.Fatal("Failed to create markdown renderer", zap.Error(err))
	}

	UserUseCase := user.NewUserUseCase(st.user)
	ProgressUseCase := progress.NewProgressUseCase(st.progress, option.Store.MaxRetries)
	DashboardUseCase := dashboard.NewDashboardUseCase(Resolver, ProgressUseCase)

	if err := rest.Serve(st.pinger, option, Resolver, Renderer, UserUseCase, ProgressUseCase, DashboardUseCase, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func openStores(option *infra.AppConfig, logger *zap.Logger) (*stores, error) {
	switch option.Store.Driver {
	case "memory":
		db := driver.NewMemoryDB()
		logger.Warn("Using the in-memory store, progress is lost on restart")
		return &stores{
			pinger:   db,
			progress: progress.NewProgressMemory(db),
			user:     user.NewUserMemory(db),
			close:    func(context.Context) error { return nil },
		}, nil
	case "redis":
		rdb := driver.NewRedisClient(&driver.RedisConfig{
			Host:     option.KVStore.Host,
			Port:     option.KVStore.Port,
			Password: option.KVStore.Password,
			DB:       option.KVStore.DB,
		})
		logger.Debug("Create redis client instance", zap.String("kv.host", option.KVStore.Host), zap.Int("kv.port", option.KVStore.Port))
		return &stores{
			pinger:   rdb,
			progress: progress.NewProgressRedis(rdb),
			user:     user.NewUserRedis(rdb),
			close:    rdb.Close,
		}, nil
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		mc, err := driver.NewMongoClient(ctx, &driver.MongoConfig{
			URI:      option.Mongo.URI,
			Database: option.Mongo.Database,
			MaxConn:  uint64(option.Database.MaxConn),
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Create mongo client instance", zap.String("mongo.database", option.Mongo.Database))
		return &stores{
			pinger:   mc,
			progress: progress.NewProgressMongo(mc),
			user:     user.NewUserMongo(mc),
			close:    mc.Close,
		}, nil
	case "mysql", "postgres":
		dbConn, err := driver.GetDBConnection(&driver.DBConfig{
			User:     option.Database.User,
			Password: option.Database.Password,
			MaxConn:  option.Database.MaxConn,
			Protocol: option.Database.Protocol,
			Driver:   option.Store.Driver,
			Host:     option.Database.Host,
			Port:     option.Database.Port,
			Query:    option.Database.Query,
			Schema:   option.Database.Schema,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("Create SQL connection instance", zap.String("db.driver", option.Store.Driver),
			zap.String("db.schema", option.Database.Schema),
			zap.String("db.host", option.Database.Host),
		)
		return &stores{
			pinger:   dbConn,
			progress: progress.NewProgressSQL(dbConn),
			user:     user.NewUserSQL(dbConn),
			close:    dbConn.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver: %s", option.Store.Driver)
}
