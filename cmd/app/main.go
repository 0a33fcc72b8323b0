package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm-market/internal/auth"
	httpx "farm-market/internal/http"
	"farm-market/internal/http/handlers"
	"farm-market/internal/model"
	"farm-market/internal/outbox"
	"farm-market/internal/payment"
	"farm-market/internal/repo"
	"farm-market/internal/service"
	"farm-market/pkg/cache"
	"farm-market/pkg/config"
	"farm-market/pkg/logger"
	"farm-market/pkg/rabbit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("farm-market", cfg.Common.LogLevel, cfg.Common.LogFormat)

	ctxDB, cancelDB := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDB()

	db, err := repo.NewPool(ctxDB, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	redis := cache.New(cfg.Redis.Addr)
	defer func() { _ = redis.Close() }()
	if err := redis.Ping(ctxDB); err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()
	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}

	users := &repo.UsersPG{DB: db}
	products := &repo.ProductsPG{DB: db}
	cart := &repo.CartPG{DB: db}
	orders := &repo.OrdersPG{DB: db}
	payments := &repo.PaymentsPG{DB: db}

	manager := &service.Manager{
		Store:    &repo.PG{DB: db},
		Cart:     cart,
		Products: products,
		Orders:   orders,
		Log:      log,
	}

	sessions := &auth.Sessions{
		Cache: redis,
		TTL:   time.Duration(cfg.Session.TTLHours) * time.Hour,
	}

	gateways := payment.Registry{
		"chapa":  payment.NewChapa(cfg.Payment.ChapaBaseURL, cfg.Payment.ChapaSecretKey),
		"stripe": payment.NewStripe(cfg.Payment.StripeBaseURL, cfg.Payment.StripeAPIKey),
	}

	authH := &handlers.AuthHandler{Users: users, Sessions: sessions, Log: log}
	productsH := &handlers.ProductsHandler{Catalog: products, Log: log}
	cartH := &handlers.CartHandler{Svc: manager, Log: log}
	ordersH := &handlers.OrdersHandler{Svc: manager, Log: log}
	paymentsH := &handlers.PaymentsHandler{
		Svc:      manager,
		Payments: payments,
		Gateways: gateways,
		Secret:   []byte(cfg.Payment.CallbackSecret),
		BaseURL:  cfg.HTTP.BaseURL,
		Currency: cfg.Payment.Currency,
		Log:      log,
	}

	resolve := func(ctx context.Context, token string) (model.User, error) {
		id, err := sessions.Resolve(ctx, token)
		if err != nil {
			return model.User{}, err
		}
		return users.ByID(ctx, id)
	}

	router := httpx.NewRouter(&handlers.Set{
		Register:      authH.Register,
		Login:         authH.Login,
		Logout:        authH.Logout,
		UpdateProfile: authH.UpdateProfile,

		ListProducts:  productsH.List,
		GetProduct:    productsH.Get,
		CreateProduct: productsH.Create,

		GetCart:        cartH.Get,
		CartCount:      cartH.Count,
		AddToCart:      cartH.Add,
		UpdateCartItem: cartH.Update,
		RemoveCartItem: cartH.Remove,

		Checkout:   ordersH.Checkout,
		ListOrders: ordersH.List,

		StartPayment:  paymentsH.Start,
		PaymentReturn: paymentsH.Return,
		PaymentCancel: paymentsH.Cancel,
	}, handlers.AuthMiddleware(resolve))

	runner := &outbox.Runner{
		Log:          log,
		DB:           db,
		EventsPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeEvents),
		PollInterval: time.Duration(cfg.Outbox.PollIntervalMS) * time.Millisecond,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		BackoffMax:   time.Duration(cfg.Outbox.BackoffMaxSec) * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	cancel()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
