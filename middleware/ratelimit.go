package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"sisgeagro/config"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// LoginRateLimit 登录失败限流中间件
// 以「用户名 + IP」为键，窗口内失败（401）次数达到上限后返回 429；登录成功清除该键的失败记录。
// MaxAttempts 为 0 时不限流
func LoginRateLimit(cfg config.LoginConfig) gin.HandlerFunc {
	return newLoginLimiter(cfg.MaxAttempts, cfg.Window, time.Now).handle
}

type loginLimiter struct {
	mu          sync.Mutex
	maxFailures int
	window      time.Duration
	now         func() time.Time
	failures    map[string][]time.Time
}

func newLoginLimiter(maxFailures int, window time.Duration, now func() time.Time) *loginLimiter {
	return &loginLimiter{
		maxFailures: maxFailures,
		window:      window,
		now:         now,
		failures:    make(map[string][]time.Time),
	}
}

func (l *loginLimiter) handle(c *gin.Context) {
	key := loginKey(c)
	if wait := l.blockedFor(key); wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":    http.StatusTooManyRequests,
			"message": "demasiados intentos de inicio de sesión, intente más tarde",
		})
		return
	}

	c.Next()

	switch status := c.Writer.Status(); {
	case status == http.StatusUnauthorized:
		l.recordFailure(key)
	case status >= 200 && status < 300:
		l.reset(key)
	}
}

// blockedFor 返回距最早一次失败移出窗口的剩余时间，未被限流时为 0
func (l *loginLimiter) blockedFor(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	if l.maxFailures <= 0 || len(recent) < l.maxFailures {
		return 0
	}
	return recent[0].Add(l.window).Sub(now)
}

func (l *loginLimiter) recordFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.failures[key] = append(l.prune(key, now), now)
	// 键数量较多时顺带清理其它过期键
	if len(l.failures) > 1024 {
		for k := range l.failures {
			l.prune(k, now)
		}
	}
}

func (l *loginLimiter) reset(key string) {
	l.mu.Lock()
	delete(l.failures, key)
	l.mu.Unlock()
}

// prune 去掉窗口外的失败记录，调用方持有锁
func (l *loginLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := l.failures[key][:0]
	for _, t := range l.failures[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}

// loginKey 读取请求体中的用户名后把请求体放回，供登录处理器继续绑定
func loginKey(c *gin.Context) string {
	var body struct {
		Username string `json:"username"`
	}
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
		if err == nil {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			_ = binding.JSON.BindBody(raw, &body)
		}
	}
	return strings.ToLower(strings.TrimSpace(body.Username)) + "|" + c.ClientIP()
}
