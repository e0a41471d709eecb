package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"chat_service/pkg/config"
	"chat_service/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof 非 production 環境才啟動 pprof, 只聽本機
func StartPprof(addr string) {
	if config.IsProduction() {
		logger.Log.Info("Production environment detected, pprof is disabled.")
		return
	}
	if addr == "" {
		addr = "127.0.0.1:6060"
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Warn("pprof server stopped", zap.Error(err))
		}
	}()
}

// 常用端點:
// 	•	/debug/pprof/goroutine → 所有 Goroutines, 查 websocket 連線是否有洩漏
// 	•	/debug/pprof/heap → 記憶體分配
// 	•	/debug/pprof/mutex → presence registry 鎖競爭
//
// go tool pprof http://127.0.0.1:6060/debug/pprof/profile?seconds=30
