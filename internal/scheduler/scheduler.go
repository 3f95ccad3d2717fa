package scheduler

import (
	"log"
	"time"

	"github.com/LJTian/NewsPulse/internal/pipeline"
	"github.com/robfig/cron/v3"
)

// Scheduler 是可选的进程内自调度：CRON_SPEC 配置后按节拍依次执行
// 同步 -> 加工 -> 发布周期。主路径仍然是外部调度器的 HTTP 触发，
// 这里只服务不方便配置外部定时器的自托管部署。
type Scheduler struct {
	cron       *cron.Cron
	syncer     *pipeline.Syncer
	dispatcher *pipeline.Dispatcher
	cycle      *pipeline.Cycle
}

func New(spec string, syncer *pipeline.Syncer, dispatcher *pipeline.Dispatcher, cycle *pipeline.Cycle) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:       c,
		syncer:     syncer,
		dispatcher: dispatcher,
		cycle:      cycle,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮，避免和进程启动期的迁移、连接建立争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, func() {
		go s.runOnce()
	})
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发整条流水线
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	log.Println("scheduler: pipeline run start...")

	results := s.syncer.SyncAll()
	var saved int
	for _, r := range results {
		saved += r.Saved
	}
	log.Printf("scheduler: sync done, saved=%d", saved)

	if res, err := s.dispatcher.Dispatch(); err != nil {
		log.Printf("scheduler: dispatch error: %v", err)
	} else {
		log.Printf("scheduler: dispatch done, before=%d after=%d created=%d", res.Before, res.After, res.Created)
	}

	if res, err := s.cycle.Run(); err != nil {
		log.Printf("scheduler: publish cycle error: %v", err)
	} else if res.Posted {
		log.Printf("scheduler: posted %q", res.ArticleTitle)
	} else {
		log.Printf("scheduler: nothing posted (%s)", res.Reason)
	}

	log.Println("scheduler: pipeline run done")
}
