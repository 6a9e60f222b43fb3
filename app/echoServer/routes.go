package echoServer

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/auth"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/book"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/borrow"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/category"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/publisher"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/user"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/jwtx"
)

type C struct {
	Auth      *auth.Controller
	User      *user.Controller
	Category  *category.Controller
	Publisher *publisher.Controller
	Book      *book.Controller
	Borrow    *borrow.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/register", c.Auth.Register)
	pub.POST("/auth/login", c.Auth.Login)

	// Authenticated
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	authed.Use(jwtx.ExtractClaims)

	// Catalog reads
	authed.GET("/books", c.Book.List)
	authed.GET("/books/:id", c.Book.Detail)
	authed.GET("/categories", c.Category.List)
	authed.GET("/publishers", c.Publisher.List)

	// Borrowing workflow
	authed.GET("/borrowings", c.Borrow.List)
	authed.POST("/borrowings", c.Borrow.Create)

	// Admin
	admin := authed.Group("", jwtx.RequireAdmin)
	admin.GET("/users", c.User.List)
	admin.DELETE("/users/:id", c.User.Delete)

	admin.POST("/categories", c.Category.Create)
	admin.PUT("/categories/:id", c.Category.Update)
	admin.DELETE("/categories/:id", c.Category.Delete)

	admin.POST("/publishers", c.Publisher.Create)
	admin.PUT("/publishers/:id", c.Publisher.Update)
	admin.DELETE("/publishers/:id", c.Publisher.Delete)

	admin.POST("/books", c.Book.Create)
	admin.PUT("/books/:id", c.Book.Update)
	admin.DELETE("/books/:id", c.Book.Delete)

	admin.PATCH("/borrowings/:id", c.Borrow.Transition)
}
