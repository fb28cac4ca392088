package mcp

import (
	"fmt"

	"github.com/felixgeelhaar/fctl/internal/validation"
)

// ValidateStatusInput validates StatusInput fields.
func ValidateStatusInput(in *StatusInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateDoctorInput validates DoctorInput fields.
func ValidateDoctorInput(in *DoctorInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateLogsInput validates LogsInput fields.
func ValidateLogsInput(in *LogsInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	for _, svc := range in.Services {
		if err := validation.ValidateServiceName(svc); err != nil {
			return fmt.Errorf("invalid service: %w", err)
		}
	}
	if err := validation.ValidateTail(in.Tail); err != nil {
		return fmt.Errorf("invalid tail: %w", err)
	}
	return nil
}

// ValidateInstallInput validates InstallInput fields.
func ValidateInstallInput(in *InstallInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateDeployInput validates DeployInput fields.
func ValidateDeployInput(in *DeployInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateUpdateInput validates UpdateInput fields.
func ValidateUpdateInput(in *UpdateInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateReloadInput validates ReloadInput fields.
func ValidateReloadInput(in *ReloadInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateBackupInput validates BackupInput fields.
func ValidateBackupInput(in *BackupInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateBackupsInput validates BackupsInput fields.
func ValidateBackupsInput(in *BackupsInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	return nil
}

// ValidateRestoreInput validates RestoreInput fields.
func ValidateRestoreInput(in *RestoreInput) error {
	if err := validation.ValidateRootPath(in.Root); err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	if err := validation.ValidateBackupKey(in.Key); err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	return nil
}
