package main

import (
	"log"
	"os"

	echoapi "github.com/edusuite/gradebook/apps/api/echo"
	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/gradebook"
	"github.com/edusuite/gradebook/core/notify"
	"github.com/edusuite/gradebook/core/order"
	"github.com/edusuite/gradebook/core/roster"
	logsvc "github.com/edusuite/gradebook/services/logger"
	badgercache "github.com/edusuite/gradebook/storage/cache/badger"
	memcache "github.com/edusuite/gradebook/storage/cache/memory"
	"github.com/edusuite/gradebook/storage/database"
	dummydb "github.com/edusuite/gradebook/storage/database/dummy"
	sqlxrepos "github.com/edusuite/gradebook/storage/database/sqlx"
)

// TODO: expose pprof/expvar on a debug listener
func main() {
	conf := core.LoadConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = core.NewConsoleLogger(std, conf)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up stores
	var (
		gbStore   gradebook.Store
		directory roster.Directory
		propStore order.PropertyStore
	)
	if conf.Debug {
		db := dummydb.Open()
		gbStore = dummydb.NewGradebookStore(db)
		directory = dummydb.NewDirectory(db)
		propStore = dummydb.NewPropertyStore(db)
	} else {
		db, err := database.Open(conf)
		errAndDie(err)
		defer db.Close()
		errAndDie(database.Migrate(db, "migrations"))
		gbStore = sqlxrepos.NewGradebookStore(db)
		directory = sqlxrepos.NewDirectory(db)
		propStore = sqlxrepos.NewPropertyStore(db)
	}

	var notifyStore notify.Store
	if conf.Debug || conf.TestMode {
		notifyStore = memcache.New(conf.Notifications.IdleTimeout, conf.Notifications.MaxEntries)
	} else {
		store, err := badgercache.Open(conf.Notifications.IdleTimeout)
		errAndDie(err)
		defer store.Close()
		notifyStore = store
	}

	// set up services
	notifySvc := notify.NewService(notifyStore, logger)
	gbSvc := gradebook.NewService(gbStore, directory, notifySvc, logger)
	orderSvc := order.NewService(gbStore, propStore, order.XMLCodec{}, logger)

	validate, translator := core.NewValidator()

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:      conf.ServerAddress(),
			Conf:         conf,
			Logger:       logger,
			GradebookSvc: gbSvc,
			OrderSvc:     orderSvc,
			NotifySvc:    notifySvc,
			Directory:    directory,
			Validate:     validate,
			Translator:   translator,
		},
	)
	app.Start()
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
