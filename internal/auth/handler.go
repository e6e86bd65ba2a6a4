package auth

import (
	"strings"

	"plastics-backend/internal/apierror"
	"plastics-backend/internal/config"
	"plastics-backend/internal/database"
	"plastics-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

func createUser(body RegisterRequest, role models.UserRole) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "password could not be hashed")
	}

	var count int64
	database.DB.Model(&models.User{}).Where("username = ?", body.Username).Count(&count)
	if count > 0 {
		return nil, fiber.NewError(fiber.StatusConflict, "username already taken")
	}

	user := models.User{
		Username:     body.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "user could not be created")
	}
	return &user, nil
}

// POST /api/auth/register-admin
// Only allowed while no admin exists.
func RegisterAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		user, err := createUser(body, models.RoleAdmin)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// POST /api/users (admin)
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		user, err := createUser(body, models.RoleUser)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := apierror.BindBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))

		var user models.User
		if err := database.DB.Where("username = ?", body.Username).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}

		token, err := GenerateToken(cfg, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be created")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(&user),
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username := CurrentUser(c)
		role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)

		if database.DB != nil {
			var user models.User
			if err := database.DB.First(&user, userID).Error; err == nil {
				return c.JSON(toUserResponse(&user))
			}
		}

		// fall back to what the token says
		return c.JSON(UserResponse{ID: userID, Username: username, Role: role})
	}
}
