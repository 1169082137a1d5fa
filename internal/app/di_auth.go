package app

import (
	"fmt"

	authHTTP "github.com/allisson/trustlog/internal/auth/http"
	authRepository "github.com/allisson/trustlog/internal/auth/repository"
	authService "github.com/allisson/trustlog/internal/auth/service"
	authUseCase "github.com/allisson/trustlog/internal/auth/usecase"
)

// SecretService returns the secret service for operator credentials.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// TokenService returns the token service for authentication.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// OperatorUseCase returns the operator use case.
func (c *Container) OperatorUseCase() (authUseCase.OperatorUseCase, error) {
	var err error
	c.operatorUseCaseInit.Do(func() {
		c.operatorUseCase, err = c.initOperatorUseCase()
		if err != nil {
			c.initErrors["operatorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["operatorUseCase"]; exists {
		return nil, storedErr
	}
	return c.operatorUseCase, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// TokenHandler returns the token HTTP handler.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	var err error
	c.tokenHandlerInit.Do(func() {
		c.tokenHandler, err = c.initTokenHandler()
		if err != nil {
			c.initErrors["tokenHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenHandler"]; exists {
		return nil, storedErr
	}
	return c.tokenHandler, nil
}

// operatorRepository is shared by the operator and token use cases so the
// memory driver sees one set of operators.
func (c *Container) operatorRepository() (authUseCase.OperatorRepository, error) {
	if c.MemoryDriver() {
		return c.memoryOperators(), nil
	}
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for operator repository: %w", err)
	}
	return authRepository.NewSQLOperatorRepository(db, c.Dialect()), nil
}

func (c *Container) initOperatorUseCase() (authUseCase.OperatorUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for operator use case: %w", err)
	}

	operatorRepository, err := c.operatorRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get operator repository for operator use case: %w", err)
	}

	baseUseCase := authUseCase.NewOperatorUseCase(txManager, operatorRepository, c.SecretService())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for operator use case: %w", err)
		}
		return authUseCase.NewOperatorUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	operatorRepository, err := c.operatorRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get operator repository for token use case: %w", err)
	}

	var tokenRepository authUseCase.TokenRepository
	if c.MemoryDriver() {
		tokenRepository = authRepository.NewMemoryTokenRepository()
	} else {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for token repository: %w", err)
		}
		tokenRepository = authRepository.NewSQLTokenRepository(db, c.Dialect())
	}

	baseUseCase := authUseCase.NewTokenUseCase(
		c.config,
		operatorRepository,
		tokenRepository,
		c.SecretService(),
		c.TokenService(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return authUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initTokenHandler() (*authHTTP.TokenHandler, error) {
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for token handler: %w", err)
	}
	return authHTTP.NewTokenHandler(tokenUseCase, c.Logger()), nil
}

func (c *Container) memoryOperators() *authRepository.MemoryOperatorRepository {
	c.memOperatorsInit.Do(func() {
		c.memOperators = authRepository.NewMemoryOperatorRepository()
	})
	return c.memOperators
}
