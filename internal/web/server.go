// README: Gin router for the web mini-app; same stores, same invariants as the bot.
package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"salonbot/internal/modules/cart"
	"salonbot/internal/modules/catalog"
	"salonbot/internal/modules/checkout"
	"salonbot/internal/modules/order"
	"salonbot/internal/modules/salon"
	"salonbot/internal/modules/user"
)

const ctxMembershipID = "membership_id"

type SalonStore interface {
	GetByID(ctx context.Context, id int64) (*salon.Salon, error)
	GetBySlug(ctx context.Context, slug string) (*salon.Salon, error)
}

type UserStore interface {
	Register(ctx context.Context, tgUserID, salonID int64, firstName, lastName string) (*user.Membership, error)
	GetMembership(ctx context.Context, id int64) (*user.Membership, error)
}

type CatalogStore interface {
	Categories(ctx context.Context, salonID int64) ([]catalog.Category, error)
	Products(ctx context.Context, salonID, categoryID int64) ([]catalog.Product, error)
	AllProducts(ctx context.Context, salonID int64) ([]catalog.Product, error)
}

type CartStore interface {
	Add(ctx context.Context, membershipID, productID int64) error
	Reduce(ctx context.Context, membershipID, productID int64) (bool, error)
	List(ctx context.Context, membershipID int64) ([]cart.Item, error)
	Clear(ctx context.Context, membershipID int64) error
}

type OrderStore interface {
	Create(ctx context.Context, cmd order.CreateCommand) (*order.Order, error)
	CountBySalon(ctx context.Context, salonID int64) (int, error)
}

type Deps struct {
	BotToken string
	Tokens   TokenStore
	Salons   SalonStore
	Users    UserStore
	Catalog  CatalogStore
	Carts    CartStore
	Orders   OrderStore
	Notifier checkout.Notifier
	Log      *logrus.Entry
}

type Server struct {
	botToken string
	tokens   TokenStore
	salons   SalonStore
	users    UserStore
	catalog  CatalogStore
	carts    CartStore
	orders   OrderStore
	notifier checkout.Notifier
	log      *logrus.Entry
}

func NewServer(d Deps) *Server {
	return &Server{
		botToken: d.BotToken,
		tokens:   d.Tokens,
		salons:   d.Salons,
		users:    d.Users,
		catalog:  d.Catalog,
		carts:    d.Carts,
		orders:   d.Orders,
		notifier: d.Notifier,
		log:      d.Log,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/auth", s.handleAuth)
	api.GET("/salons/:slug", s.handleSalon)
	api.GET("/salons/:slug/categories", s.handleCategories)
	api.GET("/salons/:slug/products", s.handleProducts)

	authed := api.Group("")
	authed.Use(s.auth())
	authed.GET("/cart", s.handleCart)
	authed.POST("/cart/add", s.handleCartAdd)
	authed.POST("/cart/reduce", s.handleCartReduce)
	authed.POST("/checkout", s.handleCheckout)

	return r
}

// auth resolves the bearer token into a membership id for the cart and
// checkout endpoints.
func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		membershipID, err := s.tokens.Resolve(c.Request.Context(), token)
		if err != nil {
			writeError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(ctxMembershipID, membershipID)
		c.Next()
	}
}

func (s *Server) membershipID(c *gin.Context) int64 {
	return c.GetInt64(ctxMembershipID)
}

type authReq struct {
	InitData string `json:"init_data"`
	Slug     string `json:"slug"`
}

// handleAuth verifies Telegram initData, binds the user to the salon behind
// the slug and issues a session token.
func (s *Server) handleAuth(c *gin.Context) {
	var req authReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := VerifyInitData(req.InitData, s.botToken)
	if err != nil {
		writeError(c, http.StatusUnauthorized, "init data rejected")
		return
	}
	sal, err := s.salons.GetBySlug(c.Request.Context(), req.Slug)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	mem, err := s.users.Register(c.Request.Context(), u.ID, sal.ID, u.FirstName, u.LastName)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	token, err := s.tokens.Create(c.Request.Context(), mem.ID)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"token":    token,
		"salon_id": sal.ID,
		"currency": sal.Currency,
	})
}
