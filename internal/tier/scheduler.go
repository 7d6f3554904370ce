package tier

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler 定时触发段位同步
type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
	spec   string
	log    *logrus.Entry
}

// NewScheduler 创建调度器，spec 为 cron 表达式或 "@every 10m" 形式
func NewScheduler(syncer *Syncer, spec string, log *logrus.Entry) *Scheduler {
	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(log)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)
	return &Scheduler{cron: c, syncer: syncer, spec: spec, log: log}
}

// Start 注册任务并启动
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runScheduled); err != nil {
		return fmt.Errorf("注册段位同步任务失败: %w", err)
	}
	s.cron.Start()
	s.log.WithField("schedule", s.spec).Info("段位同步调度已启动")
	return nil
}

// Stop 停止调度并等待正在运行的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("段位同步调度已停止")
}

// RunNow 立即执行一轮同步
func (s *Scheduler) RunNow(ctx context.Context) (Report, error) {
	return s.syncer.Run(ctx)
}

func (s *Scheduler) runScheduled() {
	if _, err := s.syncer.Run(context.Background()); err != nil {
		s.log.WithError(err).Error("定时段位同步失败")
	}
}
