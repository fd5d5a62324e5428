package main

import (
	"log"

	"genie-backend/internal/config"
	"genie-backend/internal/llm"
	"genie-backend/internal/server"
	"genie-backend/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	persona, err := llm.LoadPersona(cfg.PersonaFile)
	if err != nil {
		log.Fatalf("failed to load persona: %v", err)
	}

	ms := store.NewMemoryStore(server.CookieMaxAge, persona.Seed()...)
	client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, persona)
	s := server.NewChatServer(cfg, ms, client)

	log.Printf("%s chat server using model %s", persona.Name, cfg.Model)
	if err := server.Serve(":"+cfg.Port, s.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server exited")
}
