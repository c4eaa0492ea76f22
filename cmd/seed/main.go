package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"interview-service/internal/config"
	"interview-service/internal/database"
	"interview-service/internal/models"
	"interview-service/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)

	slog.Info("Creating initial users...")

	seedUsers := []struct {
		email     string
		firstName string
		lastName  string
		role      models.UserRole
	}{
		{"interviewer@example.com", "Ivy", "Nguyen", models.RoleInterviewer},
		{"alice@example.com", "Alice", "Tran", models.RoleJobSeeker},
		{"bob@example.com", "Bob", "Le", models.RoleJobSeeker},
		{"charlie@example.com", "Charlie", "Pham", models.RoleJobSeeker},
	}

	users := make(map[string]*models.User, len(seedUsers))
	for _, data := range seedUsers {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
		user := &models.User{
			Email:     data.email,
			Password:  string(hashedPassword),
			FirstName: data.firstName,
			LastName:  data.lastName,
			Role:      data.role,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			slog.Warn("User might already exist", "email", data.email, "error", err)
			existing, ferr := userRepo.FindByEmail(ctx, data.email)
			if ferr != nil {
				continue
			}
			user = existing
		} else {
			slog.Info("Created user", "email", data.email, "id", user.ID)
		}
		users[data.email] = user
	}

	slog.Info("Creating friendships...")

	pairs := [][2]string{
		{"alice@example.com", "bob@example.com"},
		{"alice@example.com", "charlie@example.com"},
	}
	for _, pair := range pairs {
		a, b := users[pair[0]], users[pair[1]]
		if a == nil || b == nil {
			continue
		}
		if err := friendRepo.AddFriend(ctx, a.ID, b.ID); err != nil {
			slog.Warn("Friendship might already exist", "a", pair[0], "b", pair[1], "error", err)
		}
	}

	slog.Info("Creating a sample interview...")

	interviewer := users["interviewer@example.com"]
	candidate := users["alice@example.com"]
	if interviewer != nil && candidate != nil {
		scheduledAt := time.Now().Add(24 * time.Hour)
		interview := &models.Interview{
			Title:        "Backend systems screen",
			Description:  "Data structures and a small design exercise.",
			Status:       models.InterviewScheduled,
			ScheduledAt:  &scheduledAt,
			CodeLanguage: "go",
			Participants: []models.InterviewParticipant{{
				InterviewerID: interviewer.ID,
				CandidateID:   candidate.ID,
			}},
		}
		if err := interviewRepo.Create(ctx, interview); err != nil {
			slog.Warn("Failed to create sample interview", "error", err)
		} else {
			slog.Info("Created interview", "id", interview.ID)
		}
	}

	slog.Info("Database seeding completed")
}
