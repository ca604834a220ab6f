package service

import "github.com/wolfeidau/tracker/internal/workflow"

func workflowUpdate(name *string, statuses []string) workflow.Update {
	return workflow.Update{Name: name, Statuses: statuses}
}

func workflowUpdateDefault(isDefault *bool) workflow.Update {
	return workflow.Update{IsDefault: isDefault}
}
