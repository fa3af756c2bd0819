package gateway

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"trekconnect/auth"
	"trekconnect/domain"
	"trekconnect/errors"
	"trekconnect/repositories"
)

const defaultSearchLimit = 20

// Handler carries the REST and websocket surface of the gateway.
type Handler struct {
	log        *slog.Logger
	hub        *Hub
	users      repositories.IUserRepository
	tokens     *auth.TokenManager
	sendBuffer int
}

func NewHandler(log *slog.Logger, hub *Hub, users repositories.IUserRepository,
	tokens *auth.TokenManager, sendBuffer int) *Handler {
	return &Handler{
		log:        log,
		hub:        hub,
		users:      users,
		tokens:     tokens,
		sendBuffer: sendBuffer,
	}
}

// Register wires every route onto the fiber app. Auth endpoints stay
// public; everything else sits behind the JWT middleware.
func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")

	api.Post("/auth/register", h.RegisterParticipant)
	api.Post("/auth/login", h.Login)

	protected := api.Group("", auth.Middleware(h.tokens))
	protected.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	protected.Get("/ws", websocket.New(h.Websocket))

	protected.Get("/rooms/:roomID/messages", h.History)
	protected.Get("/rooms/:roomID/search", h.Search)
	protected.Post("/messages/:id/read", h.MarkRead)
}

// RegisterParticipant POST /api/auth/register
func (h *Handler) RegisterParticipant(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := auth.ValidateRegister(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("Failed to hash password", "error", err)
		return fiber.ErrInternalServerError
	}

	if err := h.users.CreateUser(req.Handle, hash); err != nil {
		if err == errors.ErrUserAlreadyExists {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		h.log.Error("Failed to create user", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"handle": req.Handle})
}

// Login POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	if err := auth.ValidateLogin(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	user, err := h.users.GetUserByHandle(req.Handle)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, errors.ErrInvalidCredentials.Error())
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return fiber.NewError(fiber.StatusUnauthorized, errors.ErrInvalidCredentials.Error())
	}

	token, err := h.tokens.GenerateToken(user.Handle)
	if err != nil {
		h.log.Error("Failed to sign token", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"token": token})
}

// Websocket GET /api/ws
// The middleware already validated the token; the identity travels
// through fiber locals into the upgraded connection.
func (h *Handler) Websocket(conn *websocket.Conn) {
	participantID, _ := conn.Locals(auth.ParticipantIDKey).(string)
	if participantID == "" {
		_ = conn.Close()
		return
	}

	client := NewClientConn(domain.ParticipantID(participantID), conn, h.hub, h.sendBuffer, h.log)
	h.log.Info("Participant connected", "participant", participantID)

	go client.WritePump()
	client.ReadPump()
	h.log.Info("Participant disconnected", "participant", participantID)
}

// History GET /api/rooms/:roomID/messages?cursor=
func (h *Handler) History(c *fiber.Ctx) error {
	roomID := domain.RoomID(c.Params("roomID"))
	participant := domain.ParticipantID(auth.ParticipantFromCtx(c))
	if !domain.Belongs(roomID, participant) {
		return fiber.NewError(fiber.StatusForbidden, errors.ErrForeignRoom.Error())
	}

	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}

	messages, next, err := h.hub.History(roomID, cursor)
	if err != nil {
		h.log.Error("Failed to load history", "room", roomID, "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"messages": messages, "cursor": next})
}

// MarkRead POST /api/messages/:id/read
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid message id")
	}
	participant := domain.ParticipantID(auth.ParticipantFromCtx(c))

	stored, err := h.hub.Lookup(messageID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, errors.ErrUnknownMessage.Error())
	}
	if !domain.Belongs(stored.RoomID, participant) {
		return fiber.NewError(fiber.StatusForbidden, errors.ErrForeignRoom.Error())
	}

	h.hub.Dispatch(domain.MarkReadCommand{Message: stored, Reader: participant})
	return c.SendStatus(fiber.StatusAccepted)
}

// Search GET /api/rooms/:roomID/search?q=&limit=
func (h *Handler) Search(c *fiber.Ctx) error {
	roomID := domain.RoomID(c.Params("roomID"))
	participant := domain.ParticipantID(auth.ParticipantFromCtx(c))
	if !domain.Belongs(roomID, participant) {
		return fiber.NewError(fiber.StatusForbidden, errors.ErrForeignRoom.Error())
	}

	terms := c.Query("q")
	if terms == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing query")
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	hits, err := h.hub.Search(c.Context(), roomID, terms, limit)
	if err != nil {
		h.log.Error("Search failed", "room", roomID, "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{"hits": hits})
}
