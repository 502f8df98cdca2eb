// Package di assembles the web application with a dig container.
package di

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoweb "github.com/trezcool/tutor/apps/web/echo"
	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
	logsvc "github.com/trezcool/tutor/services/logger"
	"github.com/trezcool/tutor/storage"
	"github.com/trezcool/tutor/storage/table"
)

type (
	StoreLoggerParam struct {
		dig.In
		Logger core.Logger `name:"storeLogger"`
	}

	// StoreCloser releases the record store.
	StoreCloser func() error
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStore opens the configured store and halts when it cannot be reached.
func newStore(conf *core.Config, loggerParam StoreLoggerParam) (table.Store, StoreCloser) {
	setUp := func() (table.Store, func() error, error) {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Store.Timeout)
		defer cancel()

		store, closeStore, err := storage.Open(ctx, conf.Store)
		if err != nil {
			return nil, nil, err
		}
		if err = store.Ping(ctx); err != nil {
			_ = closeStore()
			return nil, nil, err
		}
		return store, closeStore, nil
	}

	store, closeStore, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s store: %v", conf.Store.Driver, err), err)
	}
	return store, StoreCloser(closeStore)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	tutor.InitValidators(validate, translator)
	return validate
}

func newServerDeps(
	conf *core.Config,
	logger core.Logger,
	tutorSvc tutor.Service,
	validate *validator.Validate,
	translator ut.Translator,
) echoweb.Deps {
	return echoweb.Deps{
		Conf:       conf,
		Logger:     logger,
		TutorSvc:   tutorSvc,
		Validate:   validate,
		Translator: translator,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStore))
	must(c.Provide(table.NewRepository, dig.As(new(tutor.Repository))))
	must(c.Provide(tutor.NewService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoweb.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
