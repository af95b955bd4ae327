package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/database"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils"
	"github.com/sahilchouksey/eduplatform-api/utils/middleware"
	"github.com/sahilchouksey/eduplatform-api/utils/response"
	"gorm.io/gorm"
)

// UpdateRoleRequest represents the request body for changing a user's role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers retrieves all users with pagination and filters
// GET /admin/users?page=&limit=&role=&search=
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	page, limit := utils.Page(c, 20, 100)
	role := c.Query("role")
	search := c.Query("search")

	if role != "" && !model.ValidRole(role) {
		return response.BadRequest(c, "Invalid role")
	}

	query := db.Model(&model.User{})

	if role != "" {
		query = query.Where("role = ?", role)
	}

	// Search by name or email
	if search != "" {
		pattern := services.LikePattern(search)
		query = query.Where(`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, response.CalculatePagination(page, limit, total))
}

// GetUser retrieves a specific user by ID with a few counters
// GET /admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	userID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var stats struct {
		Subjects    int64 `json:"subjects"`
		Courses     int64 `json:"courses"`
		Students    int64 `json:"students"`
		Submissions int64 `json:"submissions"`
		Comments    int64 `json:"comments"`
	}

	counters := []struct {
		model interface{}
		where string
		dst   *int64
	}{
		{&model.Subject{}, "professor_id = ?", &stats.Subjects},
		{&model.Course{}, "professor_id = ?", &stats.Courses},
		{&model.ProfessorStudent{}, "professor_id = ?", &stats.Students},
		{&model.Submission{}, "student_id = ?", &stats.Submissions},
		{&model.Comment{}, "user_id = ?", &stats.Comments},
	}
	for _, counter := range counters {
		if err := db.Model(counter.model).Where(counter.where, userID).Count(counter.dst).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch user statistics")
		}
	}

	return response.SuccessWithMessage(c, "User retrieved successfully", fiber.Map{
		"user":  user,
		"stats": stats,
	})
}

// UpdateUserRole changes a user's role and invalidates their sessions
// PUT /admin/users/:id/role
func UpdateUserRole(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	userID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	var req UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !model.ValidRole(req.Role) {
		return response.BadRequest(c, "Role must be one of: student, professor, admin")
	}

	if admin, ok := middleware.GetUser(c); ok && admin.ID == userID {
		return response.BadRequest(c, "Cannot change your own role")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	if user.Role == req.Role {
		return response.SuccessWithMessage(c, "Role unchanged", user)
	}

	// Tokens carry the role, so existing ones must stop working
	err = db.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"role":          req.Role,
		"token_version": gorm.Expr("token_version + 1"),
	}).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to update role")
	}

	if err := db.First(&user, userID).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.SuccessWithMessage(c, "Role updated successfully", user)
}

// DeleteUser soft deletes a user
// DELETE /admin/users/:id
func DeleteUser(c *fiber.Ctx, store database.Storage) error {
	db := store.DB().WithContext(c.Context())

	userID, err := utils.ParamID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}

	if admin, ok := middleware.GetUser(c); ok && admin.ID == userID {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	var user model.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// A deleted account drops off every roster
		if err := tx.Where("(student_id = ? OR professor_id = ?)", user.ID, user.ID).Delete(&model.ProfessorStudent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.Message(c, "User deleted successfully")
}
