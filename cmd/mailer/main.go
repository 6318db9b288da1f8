package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"hezora/internal/config"
	"hezora/internal/notify"
)

// mailer drains the receipt queue filled by the api in NOTIFY_MODE=queue and
// delivers each receipt over SMTP.
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[mailer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	// One pooled channel is enough to declare the queue; workers open their own.
	pool, err := notify.NewChannelPool(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, 1, logger)
	if err != nil {
		logger.Fatalf("connect rabbitmq: %v", err)
	}

	sender := notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Timeout:  cfg.NotifyTimeout,
	})

	var wg sync.WaitGroup
	for i := 1; i <= cfg.MailerWorkers; i++ {
		worker, err := notify.NewWorker(i, pool.Conn(), cfg.RabbitMQ.Queue, sender, cfg.NotifyTimeout, logger)
		if err != nil {
			pool.Close()
			logger.Fatalf("create worker %d: %v", i, err)
		}
		wg.Add(1)
		go worker.Start(&wg)
	}
	logger.Printf("started %d workers on queue %s", cfg.MailerWorkers, cfg.RabbitMQ.Queue)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopCh
	logger.Printf("received signal %s, stopping workers", sig)

	// Closing the connection ends every consumer loop.
	pool.Close()
	wg.Wait()
	logger.Printf("mailer stopped")
}
