package main

import (
	"context"
	"log"
	"net/http"

	"clubhouse/account"
	"clubhouse/auditlog"
	"clubhouse/bizerror"
	"clubhouse/common"
	"clubhouse/domain"
	"clubhouse/domain/asset"
	"clubhouse/domain/membership"
	"clubhouse/domain/position"
	"clubhouse/domain/settings"
	"clubhouse/domain/timesheet"
	"clubhouse/es"
	"clubhouse/infra/tracing"
	"clubhouse/persistence"
	"clubhouse/search"
	"clubhouse/servehttp"
	"clubhouse/session"
	"clubhouse/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	tracingCloser, err := tracing.Bootstrap()
	if err != nil {
		log.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer tracingCloser.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&account.Person{},
		&domain.Role{}, &domain.PersonRole{}, &domain.PersonPosition{},
		&domain.Position{}, &domain.Slot{},
		&domain.Timesheet{}, &domain.TimesheetLog{}, &domain.PersonEvent{},
		&asset.Asset{}, &asset.AssetCheckout{},
		&settings.Setting{}, &auditlog.ActionLog{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		log.Fatalf("security configuration failed %v\n", err)
	}

	es.CreateClientFromEnv()

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress(), servehttp.RateLimit(50, 100))
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	sessions.RegisterSessionsHandler(engine)
	sessions.RegisterSessionHandler(engine, session.SimpleAuthFilter())

	auth := session.SimpleAuthFilter()
	account.RegisterPersonsRestAPI(engine, auth)
	position.RegisterPositionsRestAPI(engine, auth)
	membership.RegisterMembershipsRestAPI(engine, auth)
	timesheet.RegisterTimesheetsRestAPI(engine, auth)
	asset.RegisterAssetsRestAPI(engine, auth)
	settings.RegisterSettingsRestAPI(engine, auth)
	search.RegisterPersonSearchRestAPI(engine, auth)

	servehttp.StartHTTPServer(engine)
}
