package infra

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "GOAPP"

// runtime environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AppConfig App option object
type AppConfig struct {
	AppID          string        `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`                                      // bind listen port
	Env            string        `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`     // abort request after
	Content        struct {
		Dir          string `mapstructure:"dir" json:"dir" yaml:"dir" validate:"required"`                            // content root, holds courses.json
		DefaultLang  string `mapstructure:"default_lang" json:"default_lang" yaml:"default_lang" validate:"required"` // lesson lang when front-matter omits it
		DefaultOrder int    `mapstructure:"default_order" json:"default_order" yaml:"default_order"`                  // lesson order when front-matter omits it
	} `mapstructure:"content" json:"content" yaml:"content"`
	Store struct {
		Driver     string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=memory redis mongo mysql postgres"` // progress store backend
		MaxRetries int    `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries" validate:"min=1"`                    // conditional write attempts
	} `mapstructure:"store" json:"store" yaml:"store"`
	Database struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"`                                                // server host
		MaxConn  int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" validate:"min=1"`                      // maximum opening connections number
		Password string `mapstructure:"password" json:"-" yaml:"password"`                                           // db password
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`                                                // server port
		Protocol string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"` // connection protocol, eg.tcp
		Query    string `mapstructure:"query" json:"query" yaml:"query"`                                             // DSN query parameter
		Schema   string `mapstructure:"schema" json:"schema" yaml:"schema"`                                          // use schema
		User     string `mapstructure:"username" json:"username" yaml:"username"`                                    // db username
	} `mapstructure:"database" json:"database" yaml:"database"`
	KVStore struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"`      // bind host address
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`      // bind listen port
		Password string `mapstructure:"password" json:"-" yaml:"password"` // password for security reasons
		DB       int    `mapstructure:"db" json:"db" yaml:"db"`            // logical database
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	Mongo struct {
		URI      string `mapstructure:"uri" json:"-" yaml:"uri"`                  // connection string
		Database string `mapstructure:"database" json:"database" yaml:"database"` // database holding the users collection
	} `mapstructure:"mongo" json:"mongo" yaml:"mongo"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	Security struct {
		IDLength  int    `mapstructure:"id_length" json:"id_length" yaml:"id_length" validate:"min=8"` // length of generated request IDs
		JWTMethod string `mapstructure:"jwt_method" json:"jwt_method" yaml:"jwt_method" validate:"oneof=HS256 HS384 HS512"`
		JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"jwt_secret" validate:"required"`
		TokenName string `mapstructure:"token_name" json:"token_name" yaml:"token_name" validate:"required"` // cookie name carrying the identity token
	} `mapstructure:"security" json:"security" yaml:"security"`
	Markdown struct {
		HighlightStyle string `mapstructure:"highlight_style" json:"highlight_style" yaml:"highlight_style"`
	} `mapstructure:"markdown" json:"markdown" yaml:"markdown"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// a missing .env is fine, real environments inject variables directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded variables from .env")
	}

	// app
	pflag.String("host", "", "binding address")
	pflag.String("app_id", "course-reader", "application identifier")
	pflag.String("env", EnvDevelopment, "runtime environment, can be 'development' or 'production'")
	pflag.Int("port", 8081, "listening port")
	pflag.Duration("request_timeout", 30*time.Second, "abort request after(m, s and h units are supported), eg.30s")

	// content
	pflag.String("content.dir", "content", "content root holding courses.json and courses/<id>/*.md")
	pflag.String("content.default_lang", "cpp", "lesson language when front-matter omits it")
	pflag.Int("content.default_order", 999, "lesson order when front-matter omits it")

	// progress store
	pflag.String("store.driver", "memory", "progress store backend, one of memory, redis, mongo, mysql, postgres")
	pflag.Int("store.max_retries", 5, "attempts of a conditional progress write before giving up")

	// database
	pflag.String("database.host", "127.0.0.1", "database host")
	pflag.Int("database.port", 5432, "database server port")
	pflag.String("database.protocol", "", "connection protocol(if store.driver is mysql, this flag must be set), eg.tcp")
	pflag.String("database.username", "", "database username")
	pflag.String("database.password", "", "database password")
	pflag.String("database.schema", "", "database schema")
	pflag.String("database.query", "", `additional DSN query parameters('?' is auto prefixed)`)
	pflag.Int32("database.maxconn", 50, `max connection count, if you encounter a "too many connections" error, please consider
increasing the max_connection value of your db server, or lower this value`)

	// kv storage
	pflag.String("kv.host", "127.0.0.1", "kv host")
	pflag.Int("kv.port", 6379, "kv server port")
	pflag.String("kv.password", "", "kv server password")
	pflag.Int("kv.db", 0, "kv logical database")

	// mongo
	pflag.String("mongo.uri", "mongodb://127.0.0.1:27017", "mongo connection string")
	pflag.String("mongo.database", "course_reader", "mongo database name")

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// security
	pflag.Int("security.id_length", 24, "set length of generated request IDs")
	pflag.String("security.jwt_method", "HS256", "hash algorithm of identity tokens")
	pflag.String("security.jwt_secret", "", "identity token secret (required)")
	pflag.String("security.token_name", "token", "cookie name carrying the identity token")

	// markdown
	pflag.String("markdown.highlight_style", "monokai", "chroma style used for code blocks")

	// DevOp
	pflag.Bool("devop.apm", false, "enable apm metrics")

	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config = new(AppConfig)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" || name == "" {
			return ""
		}
		return name
	})
	err := validate.Struct(config)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	if err == nil {
		return nil
	}

	var msg []string
	for _, field := range err.(validator.ValidationErrors) {
		namespace := field.Namespace()
		fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", fieldName))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
		case "min":
			msg = append(msg, fmt.Sprintf("%s must be at least %s", fieldName, field.Param()))
		default:
			msg = append(msg, fmt.Sprintf("%s failed on %s", fieldName, field.Tag()))
		}
	}
	return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
}
