// Package main library management API.
//
// @title           Library Management API
// @version         1.0
// @description     Books, categories, publishers and the borrow/return workflow.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/hotrolaptrinh/QLThuVien/app/echoServer"
	authctrl "github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/auth"
	bookctrl "github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/book"
	borrowctrl "github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/borrow"
	categoryctrl "github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/category"
	publisherctrl "github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/publisher"
	userctrl "github.com/hotrolaptrinh/QLThuVien/app/echoServer/controller/user"
	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/validation"
	"github.com/hotrolaptrinh/QLThuVien/config"
	bookrepo "github.com/hotrolaptrinh/QLThuVien/repository/book"
	borrowrepo "github.com/hotrolaptrinh/QLThuVien/repository/borrow"
	categoryrepo "github.com/hotrolaptrinh/QLThuVien/repository/category"
	publisherrepo "github.com/hotrolaptrinh/QLThuVien/repository/publisher"
	userrepo "github.com/hotrolaptrinh/QLThuVien/repository/user"
	authsvc "github.com/hotrolaptrinh/QLThuVien/service/auth"
	booksvc "github.com/hotrolaptrinh/QLThuVien/service/book"
	borrowsvc "github.com/hotrolaptrinh/QLThuVien/service/borrow"
	categorysvc "github.com/hotrolaptrinh/QLThuVien/service/category"
	publishersvc "github.com/hotrolaptrinh/QLThuVien/service/publisher"
	usersvc "github.com/hotrolaptrinh/QLThuVien/service/user"
	"github.com/hotrolaptrinh/QLThuVien/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	cr := categoryrepo.New(db)
	pr := publisherrepo.New(db)
	br := bookrepo.New(db)
	bwr := borrowrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	us := usersvc.New(ur)
	cs := categorysvc.New(cr)
	ps := publishersvc.New(pr)
	bs := booksvc.New(br)
	bws := borrowsvc.New(bwr)

	if err := as.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("admin seeding failed", "err", err)
		os.Exit(1)
	}

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log, JWTSecret: cfg.JWTSecret}
	userC := &userctrl.Controller{Svc: us, Log: log}
	categoryC := &categoryctrl.Controller{Svc: cs, V: v, Log: log}
	publisherC := &publisherctrl.Controller{Svc: ps, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: bws, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		User:      userC,
		Category:  categoryC,
		Publisher: publisherC,
		Book:      bookC,
		Borrow:    borrowC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
