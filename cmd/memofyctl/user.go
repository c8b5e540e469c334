package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userEmail      string
	userName       string
	userRole       string
	userDepartment string
	userPassword   string
	userNoPassword bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision an account",
	Long: `Add creates an active account. Without --password the password is read
from the terminal; pass --no-password for Google-only accounts.

Example:
  memofyctl user add --email dean@buksu.edu.ph --name "Dean" --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := userService(cmd)
		if err != nil {
			return err
		}
		password := userPassword
		if password == "" && !userNoPassword {
			if password, err = promptPassword(cmd); err != nil {
				return err
			}
		}
		user, err := svc.CreateUser(cmd.Context(), dto.CreateUserRequest{
			Email:      userEmail,
			Name:       userName,
			Role:       domain.UserRole(userRole),
			Department: userDepartment,
			Password:   password,
		}, cliActor)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.UserID)
		return nil
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change the role of an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := domain.ParseUserRole(userRole)
		if err != nil {
			return err
		}
		svc, err := userService(cmd)
		if err != nil {
			return err
		}
		user, err := svc.GetUserByEmail(cmd.Context(), userEmail)
		if err != nil {
			return err
		}
		if _, err := svc.UpdateUser(cmd.Context(), user.UserID, dto.UpdateUserRequest{Role: &role}, cliActor); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, role)
		return nil
	},
}

var userSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Replace the local password of an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := userService(cmd)
		if err != nil {
			return err
		}
		user, err := svc.GetUserByEmail(cmd.Context(), userEmail)
		if err != nil {
			return err
		}
		password := userPassword
		if password == "" {
			if password, err = promptPassword(cmd); err != nil {
				return err
			}
		}
		if err := svc.SetPassword(cmd.Context(), user.UserID, password, cliActor); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", user.Email)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "e-mail address (required)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name (required)")
	userAddCmd.Flags().StringVar(&userRole, "role", "", "admin, secretary or faculty (required)")
	userAddCmd.Flags().StringVar(&userDepartment, "department", "", "department")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "password (prompted when omitted)")
	userAddCmd.Flags().BoolVar(&userNoPassword, "no-password", false, "create a Google-only account")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("role")

	userSetRoleCmd.Flags().StringVar(&userEmail, "email", "", "e-mail address (required)")
	userSetRoleCmd.Flags().StringVar(&userRole, "role", "", "admin, secretary or faculty (required)")
	_ = userSetRoleCmd.MarkFlagRequired("email")
	_ = userSetRoleCmd.MarkFlagRequired("role")

	userSetPasswordCmd.Flags().StringVar(&userEmail, "email", "", "e-mail address (required)")
	userSetPasswordCmd.Flags().StringVar(&userPassword, "password", "", "password (prompted when omitted)")
	_ = userSetPasswordCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userSetRoleCmd)
	userCmd.AddCommand(userSetPasswordCmd)
}

func userService(cmd *cobra.Command) (portssvc.UserSvcFacade, error) {
	repos, err := repositories(cmd.Context())
	if err != nil {
		return nil, err
	}
	return services.NewUserService(repos.UserRepo), nil
}

// promptPassword reads a password without echo on a terminal, or one line
// from a pipe.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
