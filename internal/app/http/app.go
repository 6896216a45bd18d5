package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	appmw "vidstream/internal/middleware"
	httprouters "vidstream/internal/transport/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	gate    *appmw.AuthGate
	host    string
	port    string
}

func New(log *slog.Logger, host, port string, routers *httprouters.Routers, gate *appmw.AuthGate) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(appmw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	return &Server{
		log:     log,
		e:       e,
		routers: routers,
		gate:    gate,
		host:    host,
		port:    port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf("%s:%s", s.host, s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) BuildRouters() {
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	users := s.e.Group("/api/v1/users")
	{
		users.POST("/register", s.routers.Register)
		users.POST("/login", s.routers.Login)
		users.POST("/refresh-token", s.routers.Refresh)

		users.GET("/channel/:username", s.routers.ChannelProfile, s.gate.Optional)

		// Everything below runs behind the token gate.
		users.POST("/logout", s.routers.Logout, s.gate.Require)
		users.POST("/change-password", s.routers.ChangePassword, s.gate.Require)
		users.GET("/current-user", s.routers.CurrentUser, s.gate.Require)
		users.PATCH("/update-account-details", s.routers.UpdateAccountDetails, s.gate.Require)
		users.PATCH("/avatar", s.routers.UpdateAvatar, s.gate.Require)
		users.PATCH("/cover-image", s.routers.UpdateCoverImage, s.gate.Require)
		users.POST("/watch-history", s.routers.RecordWatch, s.gate.Require)
		users.GET("/watch-history", s.routers.WatchHistory, s.gate.Require)
	}
}
