package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"stablecoin-vault-sol/internal/config"
	"stablecoin-vault-sol/internal/metrics"
	"stablecoin-vault-sol/internal/service"
	"stablecoin-vault-sol/internal/svc"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/vault.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.VaultConfig
	conf.MustLoad(*configFile, &c)

	script, err := service.LoadScript(c.ScriptFile)
	if err != nil {
		panic(err)
	}

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	sg := zerosvc.NewServiceGroup()
	sg.Add(service.NewLedgerService(serviceContext, script))
	if c.MetricsAddr != "" {
		sg.Add(metrics.NewServer(c.MetricsAddr, serviceContext.Metrics))
	}

	logx.Infof("Starting ledger service, script=%s", c.ScriptFile)

	// 启动服务
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
