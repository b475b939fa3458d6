// main is the entry point for the outlier CLI.
package main

import (
	"github.com/huangsam/outlier/cmd"
	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/iostore"
)

func main() {
	cmd.SetStoreManager(iostore.Manager)
	defer iostore.CloseStores()

	err := cmd.Execute()
	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Failed to stop profiling", perr)
	}
	if err != nil {
		iostore.CloseStores()
		contract.LogFatal("Command failed", err)
	}
}
