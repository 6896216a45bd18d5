package app

import (
	"context"
	"log/slog"

	httpapp "vidstream/internal/app/http"
	"vidstream/internal/config"
	appmw "vidstream/internal/middleware"
	"vidstream/internal/repository"
	channelsvc "vidstream/internal/services/channel_service"
	mediasvc "vidstream/internal/services/media_service"
	tokensvc "vidstream/internal/services/token_service"
	usersvc "vidstream/internal/services/user_service"
	filestorage "vidstream/internal/storage/filestorage"
	"vidstream/internal/storage/postgresql"
	redisapp "vidstream/internal/storage/redis"
	httprouters "vidstream/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server
	storage    *postgresql.Storage
	redis      *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	storage, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}

	redisClient := redisapp.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	files, err := filestorage.NewLocalFileStorage(cfg.FileStorage.BaseDir, cfg.FileStorage.BaseURL, cfg.FileStorage.MaxSize)
	if err != nil {
		return nil, err
	}

	repo := repository.NewRepository(storage.DB, redisClient)

	tokenService := tokensvc.NewTokenService(cfg.Token)
	userService := usersvc.NewUserService(log, repo.Users, tokenService)
	mediaService := mediasvc.NewMediaService(log, repo.Users, files)
	channelService := channelsvc.NewChannelService(log, repo.Users, repo.Subscriptions, repo.History)

	routers := httprouters.NewRouter(log, userService, mediaService, channelService)
	gate := appmw.NewAuthGate(log, tokenService, repo.Users)

	server := httpapp.New(log, cfg.HTTP.Host, cfg.HTTP.Port, routers, gate)

	return &App{
		HTTPServer: server,
		storage:    storage,
		redis:      redisClient,
	}, nil
}

func (a *App) Stop() {
	_ = a.HTTPServer.Stop()
	a.storage.Stop()
	_ = a.redis.Close()
}
