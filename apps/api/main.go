package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/fee"
	"github.com/trezcool/elimu/core/interview"
	"github.com/trezcool/elimu/core/material"
	"github.com/trezcool/elimu/core/task"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	"github.com/trezcool/elimu/storage/database"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	db, err := setUpDB()
	if err != nil {
		die(logger, "setting up database", err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	courseRepo := sqlxrepos.NewCourseRepository(db)
	enrollRepo := sqlxrepos.NewEnrollRepository(db)

	deps := echoapi.ServerDeps{
		Logger:        logger,
		UserSvc:       user.NewService(usrRepo),
		CourseSvc:     course.NewService(courseRepo),
		EnrollSvc:     enroll.NewService(enrollRepo, courseRepo, usrRepo, mailSvc),
		TaskSvc:       task.NewService(sqlxrepos.NewTaskRepository(db), courseRepo, enrollRepo),
		AttendanceSvc: attendance.NewService(sqlxrepos.NewAttendanceRepository(db), courseRepo, enrollRepo),
		MaterialSvc:   material.NewService(sqlxrepos.NewMaterialRepository(db), courseRepo, enrollRepo),
		FeeSvc:        fee.NewService(sqlxrepos.NewFeeRepository(db), usrRepo, mailSvc),
		InterviewSvc:  interview.NewService(sqlxrepos.NewInterviewRepository(db), usrRepo),
	}

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(deps)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		die(logger, "server error", err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				die(logger, "could not force stop server", err)
			}
		}
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func die(logger core.Logger, msg string, err error) {
	logger.Critical(fmt.Sprintf("%s: %v", msg, err), err)
	os.Exit(1)
}
