package cmd

import (
	"github.com/sirupsen/logrus"

	coreDB "github.com/AzielCF/az-lookups/core/database"
)

// StopApp performs a clean shutdown of background work and connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if stopWatch != nil {
		stopWatch()
	}
	if appCancel != nil {
		appCancel()
	}

	// Let in-flight persistence finish before closing the store.
	if lookupManager != nil {
		lookupManager.WaitForPersistence()
		lookupManager.Freshness().Stop()
	}

	if err := coreDB.Close(sqlDB); err != nil {
		logrus.WithError(err).Warn("[DB] Failed to close database")
	}
	if vkClient != nil {
		vkClient.Close()
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
