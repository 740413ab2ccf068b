// Package main provides CLI for tenant and schema management.
// Usage: admin tenant-create --slug acme --name "ACME Gas"
//        admin tenant-list
//        admin migrate
//        admin suspend <tenant-id>
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"gasledger/internal/core/id"
	"gasledger/internal/core/tenant"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "tenant-create":
		createTenant(ctx)
	case "tenant-list":
		listTenants(ctx)
	case "migrate":
		migrate()
	case "suspend":
		setStatus(ctx, tenant.StatusSuspended)
	case "activate":
		setStatus(ctx, tenant.StatusActive)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Gasledger Admin CLI

Usage:
  admin <command> [options]

Commands:
  tenant-create  Register a new tenant
  tenant-list    List active tenants
  migrate        Run database migrations
  suspend        Suspend a tenant
  activate       Activate a suspended tenant
  help           Show this help

Environment Variables:
  DATABASE_URL   Connection string (required)

Examples:
  admin tenant-create --slug acme --name "ACME Gas Distribution"
  admin tenant-list
  admin migrate
  admin suspend <tenant-uuid>`)
}

func getPool(ctx context.Context) *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	return pool
}

func createTenant(ctx context.Context) {
	var slug, name string

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--slug":
			if i+1 < len(os.Args) {
				slug = os.Args[i+1]
				i++
			}
		case "--name":
			if i+1 < len(os.Args) {
				name = os.Args[i+1]
				i++
			}
		}
	}

	if slug == "" || name == "" {
		fmt.Println("Error: --slug and --name are required")
		fmt.Println("Usage: admin tenant-create --slug <slug> --name <name>")
		os.Exit(1)
	}

	pool := getPool(ctx)
	defer pool.Close()

	registry := tenant.NewPostgresRegistry(pool)

	t, err := registry.Create(ctx, tenant.CreateInput{Slug: slug, DisplayName: name})
	if err != nil {
		fmt.Printf("Error registering tenant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tenant '%s' created\n", slug)
	fmt.Printf("  Tenant ID: %s\n", t.ID)
	fmt.Printf("  Status: %s\n", t.Status)
}

func listTenants(ctx context.Context) {
	pool := getPool(ctx)
	defer pool.Close()

	registry := tenant.NewPostgresRegistry(pool)
	tenants, err := registry.ListActive(ctx)
	if err != nil {
		fmt.Printf("Error listing tenants: %v\n", err)
		os.Exit(1)
	}

	if len(tenants) == 0 {
		fmt.Println("No active tenants found")
		return
	}

	fmt.Printf("%-36s %-20s %-30s %-10s\n", "TENANT_ID", "SLUG", "NAME", "STATUS")
	fmt.Println(strings.Repeat("-", 98))

	for _, t := range tenants {
		fmt.Printf("%-36s %-20s %-30s %-10s\n",
			t.ID.String(),
			truncate(t.Slug, 20),
			truncate(t.DisplayName, 30),
			t.Status,
		)
	}
}

func migrate() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	fmt.Println("Running migrations...")
	cmd := exec.Command("goose", "-dir", "db/migrations", "postgres", dsn, "up")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("Error: migrations failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Migrations completed")
}

func setStatus(ctx context.Context, status tenant.Status) {
	if len(os.Args) < 3 {
		fmt.Println("Error: tenant id is required")
		os.Exit(1)
	}

	tenantID, err := id.Parse(os.Args[2])
	if err != nil {
		fmt.Printf("Error: invalid tenant id '%s'\n", os.Args[2])
		os.Exit(1)
	}

	pool := getPool(ctx)
	defer pool.Close()

	registry := tenant.NewPostgresRegistry(pool)
	if err := registry.UpdateStatus(ctx, tenantID, status); err != nil {
		fmt.Printf("Error updating tenant status: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tenant %s is now %s\n", tenantID, status)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
