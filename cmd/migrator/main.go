// cmd/migrator/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/config"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/refcache"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/seed"
	"github.com/Ultrahd-dev/hr-admin-app/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const migrationsDir = "."

func main() {
	// Определяем флаги командной строки
	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return
	}

	command := args[0]

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Проверяем подключение к БД
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Ошибка проверки подключения к БД: %v", err)
	}

	log.Println("Успешное подключение к базе данных")

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Ошибка настройки goose: %v", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, migrationsDir); err != nil {
			log.Fatalf("Ошибка применения миграций: %v", err)
		}
		fmt.Println("Миграции успешно применены")
	case "down":
		if err := goose.Down(db, migrationsDir); err != nil {
			log.Fatalf("Ошибка отката миграций: %v", err)
		}
		fmt.Println("Миграции успешно откачены")
	case "status":
		if err := goose.Status(db, migrationsDir); err != nil {
			log.Fatalf("Ошибка получения статуса миграций: %v", err)
		}
	case "seed":
		if len(args) < 2 {
			log.Fatalf("Необходимо указать путь к YAML файлу со справочниками")
		}
		f, err := seed.Load(args[1])
		if err != nil {
			log.Fatalf("Ошибка чтения справочников: %v", err)
		}

		seedCtx, seedCancel := context.WithTimeout(context.Background(), time.Minute)
		defer seedCancel()
		if err := seed.Apply(seedCtx, db, f); err != nil {
			log.Fatalf("Ошибка загрузки справочников: %v", err)
		}
		fmt.Printf("Загружено ролей: %d, отделов: %d\n", len(f.Roles), len(f.Departments))

		// API читает названия ролей и отделов через кэш, сбрасываем его
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer rdb.Close()
			removed, err := refcache.New(rdb, nil, 0, zap.NewNop()).Purge(seedCtx)
			if err != nil {
				log.Printf("Не удалось сбросить кэш справочников: %v", err)
			} else {
				fmt.Printf("Сброшено ключей кэша: %d\n", removed)
			}
		}
	default:
		fmt.Printf("Неизвестная команда: %s\n", command)
		flag.Usage()
	}
}

func usage() {
	fmt.Println("Использование: migrator [-config FILE] [команда]")
	fmt.Println("Доступные команды:")
	fmt.Println("  up          - Применить все непримененные миграции")
	fmt.Println("  down        - Откатить последнюю миграцию")
	fmt.Println("  status      - Показать статус миграций")
	fmt.Println("  seed FILE   - Загрузить роли, отделы и коды отделов из YAML")
	fmt.Println("")
	fmt.Println("Примеры:")
	fmt.Println("  migrator up")
	fmt.Println("  migrator status")
	fmt.Println("  migrator seed configs/seed.yaml")
}
