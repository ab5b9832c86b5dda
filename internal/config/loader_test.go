package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/rbcfuse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Persistence, convey.ShouldEqual, 0.8)
				convey.So(cfg.Depth, convey.ShouldEqual, 1000)
				convey.So(cfg.RunID, convey.ShouldEqual, "rbc-combine")
				convey.So(cfg.MaxRuns, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RBC_PERSISTENCE", "0.95")
			_ = os.Setenv("RBC_DEPTH", "100")
			_ = os.Setenv("RBC_RUN_ID", "fused")
			_ = os.Setenv("RBC_WORKERS", "3")
			_ = os.Setenv("RBC_MAX_RUNS", "64")
			_ = os.Setenv("RBC_METRICS_FILE", "/tmp/rbc.prom")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Persistence, convey.ShouldEqual, 0.95)
				convey.So(cfg.Depth, convey.ShouldEqual, 100)
				convey.So(cfg.RunID, convey.ShouldEqual, "fused")
				convey.So(cfg.Workers, convey.ShouldEqual, 3)
				convey.So(cfg.MaxRuns, convey.ShouldEqual, 64)
				convey.So(cfg.MetricsFile, convey.ShouldEqual, "/tmp/rbc.prom")
			})
		})

		convey.Convey("When loading config with a YAML file from RBC_CONFIG", func() {
			tmpFile := createTempConfigFile(t, `
# fusion settings
persistence: 0.6
depth: 50
run_id: from-file
log_format: json
`)
			_ = os.Setenv("RBC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values override defaults and the rest is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Persistence, convey.ShouldEqual, 0.6)
				convey.So(cfg.Depth, convey.ShouldEqual, 50)
				convey.So(cfg.RunID, convey.ShouldEqual, "from-file")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MaxRuns, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When both a file and env vars are given", func() {
			tmpFile := createTempConfigFile(t, "persistence: 0.6\ndepth: 50\n")
			_ = os.Setenv("RBC_CONFIG", tmpFile)
			_ = os.Setenv("RBC_DEPTH", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Persistence, convey.ShouldEqual, 0.6) // file
				convey.So(cfg.Depth, convey.ShouldEqual, 7)         // env
			})
		})

		convey.Convey("When WithFile names a file", func() {
			envFile := createTempConfigFile(t, "depth: 11\n")
			flagFile := createTempConfigFile(t, "depth: 22\n")
			_ = os.Setenv("RBC_CONFIG", envFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, config.WithFile(flagFile))

			convey.Convey("Then it takes the place of RBC_CONFIG", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Depth, convey.ShouldEqual, 22)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("RBC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			cfg, err := config.Load(ctx, config.WithFile("/non/existent/file.yaml"))

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric env var is not a number", func() {
			_ = os.Setenv("RBC_DEPTH", "deep")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When env sets an out of range persistence", func() {
			_ = os.Setenv("RBC_PERSISTENCE", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading succeeds and validation fails", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RBC_CONFIG",
		"RBC_LOG_LEVEL",
		"RBC_LOG_FORMAT",
		"RBC_PERSISTENCE",
		"RBC_DEPTH",
		"RBC_RUN_ID",
		"RBC_WORKERS",
		"RBC_MAX_RUNS",
		"RBC_METRICS_FILE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "rbc-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
