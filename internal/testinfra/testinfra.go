package testinfra

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var Pool *pgxpool.Pool

func init() {
	Pool = SetupDB()
}

func SetupDB() *pgxpool.Pool {

	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:17.2-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections"),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	if err != nil {
		log.Panicf("start postgres: %v", err)
	}

	pgHostPort, err := pgC.Endpoint(ctx, "")
	if err != nil {
		log.Panicf("postgres endpoint: %v", err)
	}
	pgDSN := fmt.Sprintf("postgres://postgres:password@%s/testdb?sslmode=disable", pgHostPort)

	pool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		log.Panicf("pgxpool connect: %v", err)
	}

	ok := false
	for i := 0; i < 20; i++ {
		slog.Info("ping db", "try", i)
		ctxPing, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		err = pool.Ping(ctxPing)
		cancel()
		if err == nil {
			ok = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ok {
		log.Panic("db did not respond after 20 attempts")
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS site_orders (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			stripe_session_id TEXT NOT NULL DEFAULT '',
			stripe_customer_id TEXT NOT NULL DEFAULT '',
			customer_name TEXT NOT NULL DEFAULT '',
			customer_email TEXT NOT NULL DEFAULT '',
			customer_phone TEXT,
			status VARCHAR(40) NOT NULL,
			total_price NUMERIC NOT NULL DEFAULT 0,
			currency VARCHAR(8) NOT NULL DEFAULT 'BRL',
			delivery_days INT NOT NULL DEFAULT 7,
			expected_delivery_date TIMESTAMPTZ,
			actual_delivery_date TIMESTAMPTZ,
			revisions_included INT NOT NULL DEFAULT 2,
			revisions_used INT NOT NULL DEFAULT 0,
			site_url TEXT,
			repository_url TEXT,
			admin_notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			paid_at TIMESTAMPTZ,
			onboarding_completed_at TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS site_onboarding (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			order_id BIGINT NOT NULL UNIQUE REFERENCES site_orders(id),
			business_name TEXT NOT NULL DEFAULT '',
			business_email TEXT NOT NULL DEFAULT '',
			business_phone TEXT NOT NULL DEFAULT '',
			has_whatsapp BOOLEAN NOT NULL DEFAULT FALSE,
			business_address TEXT,
			niche VARCHAR(40) NOT NULL,
			custom_niche TEXT,
			primary_city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			service_areas TEXT[],
			services TEXT[],
			primary_service TEXT NOT NULL DEFAULT '',
			site_objective TEXT,
			site_description TEXT,
			selected_pages TEXT[],
			total_pages INT NOT NULL DEFAULT 0,
			tone VARCHAR(40) NOT NULL,
			primary_cta VARCHAR(40) NOT NULL,
			cta_text TEXT,
			primary_color TEXT,
			secondary_color TEXT,
			accent_color TEXT,
			logo_url TEXT,
			reference_sites TEXT[],
			design_notes TEXT,
			business_hours JSONB,
			social_facebook TEXT,
			social_instagram TEXT,
			social_linkedin TEXT,
			social_youtube TEXT,
			testimonials JSONB,
			about_owner TEXT,
			years_in_business INT,
			is_complete BOOLEAN NOT NULL DEFAULT FALSE,
			completed_steps INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS site_deliverables (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES site_orders(id),
			"type" VARCHAR(40) NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			status VARCHAR(40) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (order_id, "type")
		);
		CREATE TABLE IF NOT EXISTS site_generation_logs (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			order_id BIGINT NOT NULL,
			step VARCHAR(60) NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			details JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS site_deployments (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES site_orders(id),
			provider VARCHAR(40) NOT NULL,
			external_id TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			last_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (order_id, provider)
		);
		CREATE TABLE IF NOT EXISTS ai_configs (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			provider VARCHAR(40) NOT NULL,
			model_name TEXT NOT NULL,
			api_key TEXT NOT NULL DEFAULT '',
			base_url TEXT NOT NULL DEFAULT '',
			max_tokens BIGINT NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS ai_task_routing (
			task_type VARCHAR(40) PRIMARY KEY,
			primary_config_id BIGINT NOT NULL REFERENCES ai_configs(id),
			fallback_config_id BIGINT REFERENCES ai_configs(id),
			temperature DOUBLE PRECISION NOT NULL DEFAULT 0.7
		);
		CREATE TABLE IF NOT EXISTS integration_configs (
			integration_type VARCHAR(40) NOT NULL,
			key VARCHAR(80) NOT NULL,
			value TEXT NOT NULL,
			is_secret BOOLEAN NOT NULL DEFAULT FALSE,
			description TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (integration_type, key)
		);
	`)
	if err != nil {
		log.Panicf("create tables: %v", err)
	}

	return pool
}
