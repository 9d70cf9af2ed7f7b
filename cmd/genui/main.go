// cmd/genui — 命令行工具: 导出 Catalog/提示词, 离线校验与渲染元素文档和工具结果。
package main

import (
	"os"

	"github.com/multi-agent/go-genui/pkg/logger"
	"github.com/multi-agent/go-genui/pkg/util"
)

func main() {
	logger.Init(os.Getenv("APP_ENV"), util.EnvStr("LOG_LEVEL", "WARN"))
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
