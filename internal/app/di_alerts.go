package app

import (
	"fmt"
	"log/slog"
	"strings"

	alertHTTP "github.com/allisson/trustlog/internal/alert/http"
	alertRepository "github.com/allisson/trustlog/internal/alert/repository"
	alertService "github.com/allisson/trustlog/internal/alert/service"
	alertUseCase "github.com/allisson/trustlog/internal/alert/usecase"
	"github.com/allisson/trustlog/internal/retry"
)

// AlertChannels returns the configured delivery channels. The log channel is
// always present.
func (c *Container) AlertChannels() ([]alertService.Channel, error) {
	var err error
	c.alertChannelsInit.Do(func() {
		c.alertChannels, err = c.initAlertChannels()
		if err != nil {
			c.initErrors["alertChannels"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["alertChannels"]; exists {
		return nil, storedErr
	}
	return c.alertChannels, nil
}

// AlertUseCase returns the alert bus.
func (c *Container) AlertUseCase() (alertUseCase.AlertUseCase, error) {
	var err error
	c.alertUseCaseInit.Do(func() {
		c.alertUseCase, err = c.initAlertUseCase()
		if err != nil {
			c.initErrors["alertUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["alertUseCase"]; exists {
		return nil, storedErr
	}
	return c.alertUseCase, nil
}

// AlertHandler returns the alert HTTP handler.
func (c *Container) AlertHandler() (*alertHTTP.AlertHandler, error) {
	var err error
	c.alertHandlerInit.Do(func() {
		var uc alertUseCase.AlertUseCase
		uc, err = c.AlertUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get alert use case for alert handler: %w", err)
			c.initErrors["alertHandler"] = err
			return
		}
		c.alertHandler = alertHTTP.NewAlertHandler(uc, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["alertHandler"]; exists {
		return nil, storedErr
	}
	return c.alertHandler, nil
}

func (c *Container) initAlertChannels() ([]alertService.Channel, error) {
	logger := c.Logger()

	channels := []alertService.Channel{
		alertService.NewLogChannel(logger),
		alertService.NewWebhookChannel(c.config.AlertWebhookURL, c.config.AlertDeliveryTimeout, logger),
	}

	if brokers := splitList(c.config.AlertKafkaBrokers); len(brokers) > 0 {
		kafka, err := alertService.NewKafkaChannel(brokers, c.config.AlertKafkaTopic, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka alert channel: %w", err)
		}
		channels = append(channels, kafka)
		logger.Info("kafka alert channel enabled", slog.Int("brokers", len(brokers)))
	}

	return channels, nil
}

func (c *Container) initAlertUseCase() (alertUseCase.AlertUseCase, error) {
	var (
		ruleRepo        alertUseCase.RuleRepository
		alertRepo       alertUseCase.AlertRepository
		deliveryRepo    alertUseCase.DeliveryRepository
		suppressionRepo alertUseCase.SuppressionRepository
	)
	if c.MemoryDriver() {
		ruleRepo = alertRepository.NewMemoryRuleRepository()
		alertRepo = alertRepository.NewMemoryAlertRepository()
		deliveryRepo = alertRepository.NewMemoryDeliveryRepository()
		suppressionRepo = alertRepository.NewMemorySuppressionRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for alert repositories: %w", err)
		}
		ruleRepo = alertRepository.NewSQLRuleRepository(db, c.Dialect())
		alertRepo = alertRepository.NewSQLAlertRepository(db, c.Dialect())
		deliveryRepo = alertRepository.NewSQLDeliveryRepository(db, c.Dialect())
		suppressionRepo = alertRepository.NewSQLSuppressionRepository(db, c.Dialect())
	}

	predicates, err := alertService.NewPredicates()
	if err != nil {
		return nil, fmt.Errorf("failed to create alert predicate environment: %w", err)
	}

	channels, err := c.AlertChannels()
	if err != nil {
		return nil, fmt.Errorf("failed to get alert channels for alert use case: %w", err)
	}

	pipeline, err := c.PipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline metrics for alert use case: %w", err)
	}

	baseUseCase := alertUseCase.NewAlertUseCase(
		ruleRepo,
		alertRepo,
		deliveryRepo,
		suppressionRepo,
		predicates,
		channels,
		pipeline,
		alertUseCase.Options{
			DeliveryTimeout: c.config.AlertDeliveryTimeout,
			Retry:           retry.Default,
		},
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for alert use case: %w", err)
		}
		return alertUseCase.NewAlertUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
