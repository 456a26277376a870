package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate|list")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary instead of -dir")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	source := func() fs.FS {
		if *embedded {
			return migrate.Embedded()
		}
		return os.DirFS(*dir)
	}

	switch *cmd {
	case "create":
		path, err := migrate.Create(*dir, *name, time.Now())
		exitOn("create migration", err)
		fmt.Println(path)
		return
	case "validate":
		exitOn("validate migrations", migrate.Validate(source()))
		fmt.Println("migrations valid")
		return
	case "list":
		names, err := migrate.Files(source())
		exitOn("list migrations", err)
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	var target int64
	if migrate.Command(*cmd) == migrate.CommandVersion {
		v, err := strconv.ParseInt(*version, 10, 64)
		if err != nil {
			exitOn("parse -version", fmt.Errorf("expected YYYYMMDDHHMMSS, got %q", *version))
		}
		target = v
	}

	cfg, err := config.Load()
	exitOn("load config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      *cmd,
		"embedded": *embedded,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	exitOn("connect database", err)
	defer client.Close()

	sqlDB, err := client.DB().DB()
	exitOn("sql handle", err)

	if err := migrate.Apply(ctx, sqlDB, source(), migrate.Command(*cmd), target, logg); err != nil {
		logg.Error(ctx, "migration failed", err)
		client.Close()
		os.Exit(1)
	}
}

func exitOn(step string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
