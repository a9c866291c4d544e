package main

import (
	"AgroAssistant/internal/app/bootstrap"
	"AgroAssistant/internal/config"
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

// Консольный прогон ассистента без HTTP: картинка, описание, затем вопросы из -question или stdin.
func main() {
	fs := flag.NewFlagSet("vision", flag.ExitOnError)
	imagePath := fs.String("image", "images/1.jpg", "путь к картинке")
	lang := fs.String("lang", "en", "язык общения (en|hi-IN)")
	question := fs.String("question", "", "вопрос по картинке; пусто — читать вопросы из stdin")

	// флаги утилиты разбираем сами, остальное отдаём конфигу
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg, sugar)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	imageData, err := os.ReadFile(*imagePath)
	if err != nil {
		log.Fatalf("failed to read image file: %v", err)
	}

	session := app.Sessions.StartNewSession(*lang)
	sugar.Infow("Session started", "session_id", session.ID(), "language", session.Language())

	fmt.Println(session.ProcessImage(ctx, base64.StdEncoding.EncodeToString(imageData)))

	ask := func(q string) {
		resp, err := session.GenerateResponse(ctx, q)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Println(resp)
	}

	if *question != "" {
		ask(*question)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
				log.Println(err)
			}
			return
		}
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			ask(q)
		}
	}
}
