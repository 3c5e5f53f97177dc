package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/go-redis/redis/v8"
	"github.com/m-mizutani/goerr/v2"

	"github.com/movetics/transflow/engine"
	"github.com/movetics/transflow/errs"
	"github.com/movetics/transflow/extract"
	"github.com/movetics/transflow/httpapi"
	"github.com/movetics/transflow/logging"
	"github.com/movetics/transflow/question"
	"github.com/movetics/transflow/session"
	"github.com/movetics/transflow/summary"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	addr := flag.String("addr", "", "serve the HTTP API on this address instead of the interactive prompt")
	logFormat := flag.String("log-format", "console", "log format: console or json")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	format := logging.FormatConsole
	if *logFormat == "json" {
		format = logging.FormatJSON
	}
	slog.SetDefault(logging.New(os.Stderr, level, format))

	if err := run(context.Background(), config, *addr); err != nil {
		log.Fatalf("transflow: %v", err)
	}
}

func run(ctx context.Context, config *Config, addr string) error {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}

	extractor, err := extract.NewToolBased(chatModel)
	if err != nil {
		return err
	}
	questionGen, err := question.NewToolBased(chatModel)
	if err != nil {
		return err
	}
	summarizer, err := summary.NewToolBased(chatModel)
	if err != nil {
		return err
	}

	store, err := buildStore(ctx, config)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if config.CollaboratorTimeoutSeconds > 0 {
		opts = append(opts, engine.WithTimeout(time.Duration(config.CollaboratorTimeoutSeconds)*time.Second))
	}
	if config.MaxAttempts > 0 {
		opts = append(opts, engine.WithMaxAttempts(config.MaxAttempts))
	}

	conv := engine.New(
		store,
		extractor,
		question.NewFailback(questionGen, question.Local{}),
		summary.NewFailback(summarizer, summary.Local{}),
		opts...,
	)

	if addr != "" {
		slog.Info("serving HTTP API", "addr", addr)
		return http.ListenAndServe(addr, httpapi.New(conv, store))
	}
	return interactive(ctx, conv)
}

func buildStore(ctx context.Context, config *Config) (session.Store, error) {
	ttl := time.Duration(config.SessionTTLMinutes) * time.Minute
	if config.RedisAddr == "" {
		return session.NewMemoryStore(session.WithTTL(ttl)), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, goerr.Wrap(err, "connect to redis", goerr.V("addr", config.RedisAddr))
	}
	return session.NewRedisStore(client, session.WithSessionTTL(ttl)), nil
}

func interactive(ctx context.Context, conv *engine.Engine) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Cuéntame qué servicio de transporte necesitas.")
	fmt.Println("Escribe 'nueva' para empezar de cero o 'salir' para terminar.")

	var sessionID string
	for {
		fmt.Print("\ntú: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "salir", "exit":
			fmt.Println("¡Hasta pronto!")
			return nil
		case "nueva", "new":
			sessionID = ""
			fmt.Println("Listo, empecemos una nueva solicitud.")
			continue
		}

		result, err := conv.HandleMessage(ctx, sessionID, "interactive_user", input)
		if err != nil && result == nil {
			if goerr.HasTag(err, errs.TagSessionBusy) {
				fmt.Println("asistente: dame un segundo, sigo procesando tu mensaje anterior.")
				continue
			}
			slog.Error("turn failed", "error", err)
			fmt.Println("asistente: tuve un problema procesando tu mensaje, ¿puedes repetirlo?")
			continue
		}
		sessionID = result.SessionID

		switch result.Status {
		case engine.StatusWaitingForResponse:
			fmt.Printf("asistente: %s\n", result.Question)
		case engine.StatusComplete:
			if result.Summary != "" {
				fmt.Printf("asistente: %s\n", result.Summary)
			} else {
				fmt.Println("asistente: tu solicitud quedó completa; enviaremos la confirmación en breve.")
			}
			fmt.Println("\nSolicitud registrada. Escribe 'nueva' para otra solicitud o 'salir' para terminar.")
			sessionID = ""
		}
	}
}
