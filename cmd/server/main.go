package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aydjay12/RentUp-sub001/internal/auth"
	cartcache "github.com/aydjay12/RentUp-sub001/internal/cart/cache"
	cartrepo "github.com/aydjay12/RentUp-sub001/internal/cart/repository"
	cartsvc "github.com/aydjay12/RentUp-sub001/internal/cart/service"
	"github.com/aydjay12/RentUp-sub001/internal/checkout/publisher"
	checkoutrepo "github.com/aydjay12/RentUp-sub001/internal/checkout/repository"
	checkoutsvc "github.com/aydjay12/RentUp-sub001/internal/checkout/service"
	"github.com/aydjay12/RentUp-sub001/internal/coupon"
	"github.com/aydjay12/RentUp-sub001/internal/favorites"
	"github.com/aydjay12/RentUp-sub001/internal/httpapi"
	"github.com/aydjay12/RentUp-sub001/internal/listing"
	"github.com/aydjay12/RentUp-sub001/internal/orders"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("Invalid %s: %v", key, err)
	}
	return v
}

func main() {
	log.Println("rentup storefront core starting...")

	// Configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGODB_DATABASE", "rentup")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	maxCartItems := getEnvInt("MAX_CART_ITEMS", 8)
	returnURL := getEnv("CHECKOUT_RETURN_URL", "http://localhost:3000/payment-success")
	currency := getEnv("CHECKOUT_CURRENCY", "USD")
	requestTimeout := 5 * time.Second

	dbPort := getEnvInt("DB_PORT", 5432)
	creds := &checkoutrepo.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "rentup"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/checkout/repository/migrations"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: listings, coupons, checkout ledger, orders
	ledger, err := checkoutrepo.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer ledger.Close()

	if err := ledger.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// MongoDB: cart documents
	mongoDatabase, err := cartrepo.ConnectMongoDB(ctx, mongoURI, mongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDatabase.Client().Disconnect(context.Background())

	cartRepository := cartrepo.NewMongoRepository(mongoDatabase)
	if err := cartrepo.EnsureIndexes(ctx, mongoDatabase); err != nil {
		log.Fatalf("Failed to create MongoDB indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", mongoURI)

	// Redis: cart cache, favorites, session and restoration tokens
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Printf("Connected to Redis at %s", redisAddr)

	// Services
	prices := listing.NewStore(ledger.DB())
	cartService := cartsvc.NewCartService(cartRepository, cartcache.NewRedisCache(redisClient), prices)
	couponService := coupon.NewService(coupon.NewPGRepository(ledger.DB()))
	sessions := auth.NewStore(redisClient)
	favoritesStore := favorites.NewStore(redisClient)

	checkoutService := checkoutsvc.NewService(
		ledger,
		checkoutsvc.StubProvider{BaseURL: getEnv("PAYMENT_PROVIDER_URL", "http://localhost:8081")},
		couponService,
		sessions,
		checkoutsvc.Config{
			MaxCartItems: maxCartItems,
			ReturnURL:    returnURL,
			Currency:     currency,
		},
	)

	// Outbox poller and orders consumer
	poller := publisher.NewOutboxPoller(ledger, kafkaBrokers...)
	go poller.Run(ctx)

	consumer := orders.NewConsumer(orders.NewPGRepository(ledger.DB()), kafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	router := httpapi.NewRouter(httpapi.Services{
		Cart:      cartService,
		Coupons:   couponService,
		Checkout:  checkoutService,
		Favorites: favoritesStore,
		Sessions:  sessions,
	}, requestTimeout)

	server := &http.Server{
		Addr:    ":" + httpPort,
		Handler: otelhttp.NewHandler(router, "rentup-storefront"),
	}

	go func() {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	log.Println("Server stopped")
}
