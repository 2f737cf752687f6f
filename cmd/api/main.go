package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/notasimples/nfse-assistente/docs"
)

func main() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: Arquivo .env não encontrado: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Criar aplicação
	app, err := NewApp(ctx)
	if err != nil {
		log.Fatalf("Erro ao iniciar a aplicação: %v", err)
	}
	defer app.Close()

	// Iniciar o servidor e os trabalhos de segundo plano
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Erro ao executar a aplicação: %v", err)
	}
}
