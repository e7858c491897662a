package controller

import (
	"fmt"
	"log"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasknest/authz"
	"tasknest/models"
	"tasknest/realtime"
	"tasknest/utils"
)

type WorkspaceController struct {
	DB      *gorm.DB
	Hub     *realtime.Hub
	Effects *utils.Effects
	Logger  *log.Logger
}

func NewWorkspaceController(db *gorm.DB, hub *realtime.Hub, effects *utils.Effects, logger *log.Logger) *WorkspaceController {
	return &WorkspaceController{
		DB:      db,
		Hub:     hub,
		Effects: effects,
		Logger:  logger,
	}
}

// MemberInfo is a member row with display info resolved.
type MemberInfo struct {
	models.PublicUser
	Role string `json:"role"`
}

type WorkspaceResponse struct {
	models.Workspace
	OwnerInfo   models.PublicUser `json:"owner"`
	MemberInfos []MemberInfo      `json:"member_infos"`
}

func (wc *WorkspaceController) load(id uint) (*models.Workspace, error) {
	var ws models.Workspace
	if err := wc.DB.Preload("Members").First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// resolve attaches owner and member display info to a workspace.
func (wc *WorkspaceController) resolve(ws *models.Workspace) (*WorkspaceResponse, error) {
	ids := []uint{ws.OwnerID}
	for _, m := range ws.Members {
		ids = append(ids, m.UserID)
	}

	var users []models.User
	if err := wc.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	resp := &WorkspaceResponse{Workspace: *ws}
	if owner, ok := byID[ws.OwnerID]; ok {
		resp.OwnerInfo = owner.Public()
	}
	for _, m := range ws.Members {
		if u, ok := byID[m.UserID]; ok {
			resp.MemberInfos = append(resp.MemberInfos, MemberInfo{PublicUser: u.Public(), Role: m.Role})
		}
	}
	return resp, nil
}

// CreateWorkspace makes the principal owner and sole admin member.
func (wc *WorkspaceController) CreateWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name        string `json:"name" validate:"required,max=100"`
		Description string `json:"description" validate:"omitempty,max=500"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	ws := models.Workspace{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     user.ID,
		Members: []models.WorkspaceMember{
			{UserID: user.ID, Role: models.RoleAdmin},
		},
	}

	if err := wc.DB.Create(&ws).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create workspace", err)
	}

	wc.Effects.LogActivity(user.ID, utils.Pointer(ws.ID), nil, "workspace_created", "created workspace "+ws.Name)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(ws))
}

// GetWorkspaces lists every workspace the principal owns or belongs to.
func (wc *WorkspaceController) GetWorkspaces(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var workspaces []models.Workspace
	err := wc.DB.Preload("Members").
		Joins("LEFT JOIN workspace_members ON workspace_members.workspace_id = workspaces.id AND workspace_members.deleted_at IS NULL").
		Where("workspaces.owner_id = ? OR workspace_members.user_id = ?", user.ID, user.ID).
		Group("workspaces.id").
		Find(&workspaces).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspaces", err)
	}

	out := make([]*WorkspaceResponse, 0, len(workspaces))
	for i := range workspaces {
		resolved, err := wc.resolve(&workspaces[i])
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve members", err)
		}
		out = append(out, resolved)
	}

	return c.JSON(utils.SuccessResponse(out))
}

func (wc *WorkspaceController) GetWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	ws, err := wc.load(utils.ParseUint(c.Params("id")))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
	}

	if !authz.WorkspaceRead(user.ID, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	resolved, err := wc.resolve(ws)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resolve members", err)
	}

	return c.JSON(utils.SuccessResponse(resolved))
}

// UpdateWorkspace renames or re-describes a workspace; admins only.
func (wc *WorkspaceController) UpdateWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description" validate:"omitempty,max=500"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if input.Name != nil && *input.Name == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "name must not be empty", nil)
	}

	ws, err := wc.load(utils.ParseUint(c.Params("id")))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
	}

	if !authz.WorkspaceManage(user.ID, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	if input.Name != nil {
		ws.Name = *input.Name
	}
	if input.Description != nil {
		ws.Description = *input.Description
	}

	if err := wc.DB.Save(ws).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update workspace", err)
	}

	wc.Hub.PublishWorkspace(realtime.EventWorkspaceUpdated, ws.ID, ws, nil)
	wc.Effects.LogActivity(user.ID, utils.Pointer(ws.ID), nil, "workspace_updated", "updated workspace "+ws.Name)

	return c.JSON(utils.SuccessResponse(ws))
}

// DeleteWorkspace removes the workspace and demotes its tasks to personal
// tasks owned by their original owners. Demotion, not cascade delete: work
// items survive their container.
func (wc *WorkspaceController) DeleteWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	ws, err := wc.load(utils.ParseUint(c.Params("id")))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
	}

	if !authz.WorkspaceManage(user.ID, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	tx := wc.DB.Begin()
	if err := tx.Model(&models.Task{}).Where("workspace_id = ?", ws.ID).
		Update("workspace_id", nil).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to detach tasks", err)
	}
	if err := tx.Where("workspace_id = ?", ws.ID).Delete(&models.WorkspaceMember{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove members", err)
	}
	if err := tx.Delete(ws).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete workspace", err)
	}
	tx.Commit()

	wc.Hub.PublishWorkspace(realtime.EventWorkspaceDeleted, ws.ID, fiber.Map{"id": ws.ID}, nil)
	wc.Effects.LogActivity(user.ID, utils.Pointer(ws.ID), nil, "workspace_deleted", "deleted workspace "+ws.Name)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Workspace deleted; its tasks are now personal tasks of their owners",
	}))
}

// InviteMember resolves an email to an existing user and appends them with
// role member. Admins only.
func (wc *WorkspaceController) InviteMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid email address", err)
	}

	ws, err := wc.load(utils.ParseUint(c.Params("workspaceId")))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
	}

	if !authz.WorkspaceManage(user.ID, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	var invitee models.User
	if err := wc.DB.Where("email = ?", input.Email).First(&invitee).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "No user with that email", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up user", err)
	}

	if authz.IsWorkspaceMember(invitee.ID, ws) {
		return utils.ErrorResponse(c, fiber.StatusConflict, "User is already a member", nil)
	}

	member := models.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      invitee.ID,
		Role:        models.RoleMember,
	}
	if err := wc.DB.Create(&member).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add member", err)
	}

	wc.Hub.PublishWorkspace(realtime.EventMemberInvited, ws.ID, fiber.Map{
		"workspace_id": ws.ID,
		"user":         invitee.Public(),
		"role":         member.Role,
	}, nil)
	wc.Effects.LogActivity(user.ID, utils.Pointer(ws.ID), nil, "member_invited",
		fmt.Sprintf("invited %s to %s", invitee.Email, ws.Name))
	wc.Effects.Notify(invitee.ID,
		fmt.Sprintf("You were added to workspace %q", ws.Name),
		models.NotificationWorkspace,
		fmt.Sprintf("/workspaces/%d", ws.ID))

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"workspace_id": ws.ID,
		"user_id":      invitee.ID,
		"role":         member.Role,
	}))
}

// memberRemovalOutcome maps the membership delete result to a response.
// Zero rows means the user was not a member, reported as a conflict so a
// repeated removal is visible to the caller rather than silently ok.
func memberRemovalOutcome(rowsAffected int64) (int, string) {
	if rowsAffected == 0 {
		return fiber.StatusConflict, "User is not a member of this workspace"
	}
	return fiber.StatusOK, "Member removed"
}

// RemoveMember detaches a member. Owner only, deliberately stricter than the
// generic admin check.
func (wc *WorkspaceController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	ws, err := wc.load(utils.ParseUint(c.Params("workspaceId")))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
	}

	if !authz.MemberRemove(user.ID, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	memberID := utils.ParseUint(c.Params("memberId"))

	result := wc.DB.Where("workspace_id = ? AND user_id = ?", ws.ID, memberID).
		Delete(&models.WorkspaceMember{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove member", result.Error)
	}
	if status, msg := memberRemovalOutcome(result.RowsAffected); status != fiber.StatusOK {
		return utils.ErrorResponse(c, status, msg, nil)
	}

	wc.Hub.PublishWorkspace(realtime.EventMemberRemoved, ws.ID, fiber.Map{
		"workspace_id": ws.ID,
		"user_id":      memberID,
	}, nil)
	wc.Effects.LogActivity(user.ID, utils.Pointer(ws.ID), nil, "member_removed",
		fmt.Sprintf("removed user %d from %s", memberID, ws.Name))

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Member removed",
	}))
}
