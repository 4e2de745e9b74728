package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/markjakearzadon/donation-gobackend/internal/app"
	"github.com/markjakearzadon/donation-gobackend/internal/config"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

func main() {
	name := flag.String("name", "Administrator", "full name")
	mobile := flag.String("mobile", "", "mobile number used to log in")
	password := flag.String("password", "", "password, at least 8 characters")
	role := flag.String("role", string(models.RoleAdmin), "role: admin, accountant, manager, editor, delivery")
	flag.Parse()

	if *mobile == "" || *password == "" {
		log.Fatal("usage: create-admin -mobile +966500000000 -password secret123 [-name Name] [-role admin]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	user, err := services.NewUserService(store.Users).Provision(ctx, *name, *mobile, *password, models.Role(*role))
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	log.Printf("Created %s %s (%s)", user.Role, user.FullName, user.ID.Hex())
}
