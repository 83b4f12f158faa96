package main

import (
	"embed"
	"log"

	"wishlist/internal/config"
	"wishlist/internal/logger"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"go.uber.org/zap"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("[Wishlist] Config: %v", err)
	}

	appLog, err := logger.New(settings.LogLevel, settings.DevMode)
	if err != nil {
		log.Fatalf("[Wishlist] Logger: %v", err)
	}

	app := NewApp(settings, appLog)

	err = wails.Run(&options.App{
		Title:            config.AppName,
		Width:            1280,
		Height:           820,
		MinWidth:         960,
		MinHeight:        600,
		DisableResize:    false,
		Fullscreen:       false,
		Frameless:        false,
		StartHidden:      false,
		BackgroundColour: &options.RGBA{R: 250, G: 247, B: 242, A: 255}, // #faf7f2
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Logger:     logger.NewWailsAdapter(appLog),
		OnStartup:  app.Startup,
		OnDomReady: app.DomReady,
		OnShutdown: app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				HideTitleBar:               false,
				FullSizeContent:            true,
				UseToolbar:                 false,
			},
			About: &mac.AboutInfo{
				Title:   config.AppName,
				Message: "Списки желаний и бронирование подарков",
			},
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			OnUrlOpen:            app.HandleDeepLink,
		},
	})

	if err != nil {
		appLog.Fatal("wails run failed", zap.Error(err))
	}
}
