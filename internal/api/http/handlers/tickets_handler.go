package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/blob"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket and conversation endpoints.
type TicketsHandler struct {
	service *service.TicketService
	blobs   blob.Store
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, blobs blob.Store) *TicketsHandler {
	return &TicketsHandler{service: ticketService, blobs: blobs}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateTicketInput{
		Subject:       req.Subject,
		Type:          req.Type,
		Priority:      req.Priority,
		Destination:   req.DestinationProfile,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Message:       req.Message,
		Attachment:    req.Attachment.ToAttachmentRef(),
	}
	ticket, entry, err := h.service.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"ticket":  dto.NewTicketSummary(ticket),
		"message": dto.NewThreadEntryResponse(entry),
	}})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	input, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	detail, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(detail.Ticket, detail.Entries, detail.SLA)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.UpdateTicketInput{
		Priority:        req.Priority,
		AssignedAgentID: req.AssignedAgentID,
	}
	if req.Status != nil {
		status, valid := domain.ParseTicketStatus(*req.Status)
		if !valid {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": *req.Status})
		}
		input.Status = &status
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ClaimTicket POST /tickets/:id/claim assigns the ticket to the calling agent.
func (h *TicketsHandler) ClaimTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	self := actor.ID
	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), service.UpdateTicketInput{AssignedAgentID: &self})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	if err := h.service.DeleteTicket(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListMessages GET /tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	entries, err := h.service.ListMessages(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewThreadEntries(entries)})
}

// PostMessage POST /tickets/:id/messages.
func (h *TicketsHandler) PostMessage(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.service.PostMessage(c.UserContext(), actor, c.Params("id"), service.PostMessageInput{
		Text:       req.Text,
		Attachment: req.Attachment.ToAttachmentRef(),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewThreadEntryResponse(entry)})
}

// UploadAttachment POST /tickets/:id/attachments stores a multipart "file"
// and posts it to the thread with the optional "text" form value.
func (h *TicketsHandler) UploadAttachment(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer file.Close()

	ref, err := h.blobs.Put(c.UserContext(), header.Filename, header.Header.Get(fiber.HeaderContentType), file)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return apperrors.NewDomainError(apperrors.CodeValidation, "attachment too large", fiber.StatusRequestEntityTooLarge, nil)
		}
		return apperrors.NewInternalError(err)
	}

	entry, err := h.service.PostMessage(c.UserContext(), actor, c.Params("id"), service.PostMessageInput{
		Text:       c.FormValue("text"),
		Attachment: &ref,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewThreadEntryResponse(entry)})
}

func parseTicketQuery(c *fiber.Ctx) (service.ListTicketsInput, error) {
	input := service.ListTicketsInput{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, ok := domain.ParseTicketStatus(part)
			if !ok {
				return input, apperrors.NewValidationError("invalid status", map[string]any{"status": part})
			}
			input.Statuses = append(input.Statuses, status)
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				input.Priorities = append(input.Priorities, part)
			}
		}
	}
	if assignee := strings.TrimSpace(c.Query("assignee_id")); assignee != "" {
		input.AssigneeID = &assignee
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		input.SearchTerm = &term
	}
	input.CreatedFrom = parseTime(c.Query("created_from"))
	input.CreatedTo = parseTime(c.Query("created_to"))
	input.Limit, input.Offset = pageWindow(parseInt(c.Query("page"), 1), parseInt(c.Query("page_size"), 20))
	return input, nil
}

// pageWindow converts 1-based page numbers to limit/offset, capping the page
// size at what the store returns so pages never overlap or skip rows.
func pageWindow(page, pageSize int) (limit, offset int) {
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	if maxPage := math.MaxInt32/pageSize + 1; page > maxPage {
		page = maxPage
	}
	return pageSize, (page - 1) * pageSize
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
