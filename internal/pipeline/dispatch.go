package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/LJTian/NewsPulse/internal/processor"
	"github.com/LJTian/NewsPulse/internal/storage"
)

const (
	jobName         = "process-raw"
	dispatchTimeout = 30 * time.Second
	processBatch    = 100
)

// RawStore 是加工环节需要的存储能力
type RawStore interface {
	CountRaw(processed bool) (int64, error)
	ListUnprocessedRaw(limit int) ([]storage.RawArticle, error)
	MarkRawProcessed(externalID string) error
	CreateArticle(a *storage.Article) error
	CountArticles() (int64, error)
}

// DispatchResult 汇报一次加工触发的前后状态
type DispatchResult struct {
	Before    int64 `json:"before"`
	After     int64 `json:"after"`
	Triggered bool  `json:"triggered"`
	Created   int64 `json:"created"`
	Total     int64 `json:"total"`
}

// Dispatcher 把待加工的原始条目交给外部增强任务。
// 配置了 JobRunnerURL 时走 HTTP 任务触发；否则退化为进程内的
// SimpleProcessor 兜底加工。本层从不重试，重试归调用方管。
type Dispatcher struct {
	Store        RawStore
	JobRunnerURL string
	Secret       string
	Processor    *processor.SimpleProcessor

	httpClient *http.Client
}

// Status 返回当前加工进度计数
func (d *Dispatcher) Status() (unprocessed, processed int64, err error) {
	if unprocessed, err = d.Store.CountRaw(false); err != nil {
		return 0, 0, err
	}
	if processed, err = d.Store.CountRaw(true); err != nil {
		return 0, 0, err
	}
	return unprocessed, processed, nil
}

// Dispatch 触发一轮加工并汇报前后计数
func (d *Dispatcher) Dispatch() (DispatchResult, error) {
	var res DispatchResult

	before, err := d.Store.CountRaw(false)
	if err != nil {
		return res, fmt.Errorf("count unprocessed: %w", err)
	}
	res.Before = before

	if d.JobRunnerURL != "" {
		if err := d.triggerJobRunner(before); err != nil {
			return res, err
		}
	} else {
		created, err := d.processLocally()
		if err != nil {
			return res, err
		}
		res.Created = created
	}
	res.Triggered = true

	if res.After, err = d.Store.CountRaw(false); err != nil {
		return res, fmt.Errorf("count unprocessed: %w", err)
	}
	if res.Total, err = d.Store.CountArticles(); err != nil {
		return res, fmt.Errorf("count articles: %w", err)
	}
	return res, nil
}

// triggerJobRunner 通过 HTTP 把加工任务交给外部执行器。
// 密钥缺失按配置错误处理；非 2xx 响应原样透出为 DispatchError。
func (d *Dispatcher) triggerJobRunner(pending int64) error {
	if d.Secret == "" {
		return ErrNoTriggerSecret
	}

	payload, err := json.Marshal(map[string]any{
		"job":     jobName,
		"payload": map[string]any{"pending": pending},
	})
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.JobRunnerURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.Secret)

	if d.httpClient == nil {
		d.httpClient = &http.Client{Timeout: dispatchTimeout}
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call job runner: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DispatchError{Status: resp.StatusCode}
	}

	log.Printf("dispatch: job %s triggered, pending=%d", jobName, pending)
	return nil
}

// processLocally 进程内兜底加工：逐条转换为成稿并翻转 is_processed
func (d *Dispatcher) processLocally() (int64, error) {
	if d.Processor == nil {
		d.Processor = processor.NewSimpleProcessor()
	}

	raws, err := d.Store.ListUnprocessedRaw(processBatch)
	if err != nil {
		return 0, fmt.Errorf("list unprocessed: %w", err)
	}

	var created int64
	for _, raw := range raws {
		a := d.Processor.Process(raw)
		if err := d.Store.CreateArticle(&a); err != nil {
			log.Printf("dispatch: create article for %s error: %v", raw.ExternalID, err)
			continue
		}
		if err := d.Store.MarkRawProcessed(raw.ExternalID); err != nil {
			log.Printf("dispatch: mark processed %s error: %v", raw.ExternalID, err)
			continue
		}
		created++
	}

	log.Printf("dispatch: processed locally, created=%d", created)
	return created, nil
}
