package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"agent-bazaar/internal/claim"
	"agent-bazaar/internal/config"
	"agent-bazaar/internal/middleware"
	"agent-bazaar/internal/server"
	"agent-bazaar/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	gin.SetMode(cfg.GinMode)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	verifier := claim.NewVerifier(cfg.ClaimVerifyFetch)

	limiter := middleware.NewRateLimiter(middleware.Limits{
		Agent: cfg.RateLimitAgent,
		Anon:  cfg.RateLimitAnon,
	}, cfg.RateLimitWindow)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go limiter.Sweep(ctx)

	router := server.NewRouter(server.Deps{
		Store:    st,
		Config:   cfg,
		Verifier: verifier,
		Limiter:  limiter,
	})

	log.Printf("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	if err := server.Run(ctx, cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
