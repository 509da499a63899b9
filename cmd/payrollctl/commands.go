package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paydesk/console/internal/admin"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/web"
)

func newLoginCmd(s *session) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login --email <email>",
		Short: "Sign in; the password is read from stdin when not given",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = p
			}
			if err := s.client.Orchestrator.Login(cmd.Context(), email, password); err != nil {
				return errors.New("sign in failed")
			}
			st := s.client.Orchestrator.State()
			fmt.Fprintf(s.out, "signed in as %s\n", st.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s.client.Orchestrator.Logout(cmd.Context())
			return nil
		},
	}
}

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session phase",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := s.current(cmd.Context())
			fmt.Fprintln(s.out, st.Phase())
			if st.LoggedIn && st.Role != model.RoleAdmin {
				fmt.Fprintf(s.out, "unread notifications: %d\n", st.UnreadCount())
			}
			return nil
		},
	}
}

func newDashboardCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your profile, salary, payments and notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireRole(cmd.Context(), false); err != nil {
				return err
			}
			st := s.current(cmd.Context())
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)

			if e := st.Employee; e != nil {
				fmt.Fprintf(w, "Name\t%s\n", e.Name)
				fmt.Fprintf(w, "Code\t%s\n", e.EmployeeCode)
				fmt.Fprintf(w, "Department\t%s\n", e.Department)
				fmt.Fprintf(w, "Email\t%s\n", e.Email)
				fmt.Fprintf(w, "Start date\t%s\n", web.FormatDate(e.StartDate))
			}
			if sal := st.Salary; sal != nil {
				fmt.Fprintf(w, "\nSalary %s\t\n", web.FormatDate(sal.Month))
				fmt.Fprintf(w, "Base\t%s\n", s.money(sal.BaseSalary))
				fmt.Fprintf(w, "Allowances\t%s\n", s.money(sal.TotalAllowance))
				fmt.Fprintf(w, "Deductions\t%s\n", s.money(sal.TotalDeduction))
				fmt.Fprintf(w, "Net\t%s\n", s.money(sal.NetSalary))
			}
			if len(st.PaymentHistory) > 0 {
				fmt.Fprintln(w, "\nMONTH\tAMOUNT\tSTATUS\tPAID")
				for _, p := range st.PaymentHistory {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", web.FormatDate(p.Month), s.money(p.Amount), p.Status, web.FormatDate(p.PaidAt))
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return printNotifications(s.out, st.Notifications)
		},
	}
}

func printNotifications(out io.Writer, ns []model.Notification) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nID\t\tTITLE\tDATE")
	for _, n := range ns {
		mark := ""
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, mark, n.Title, web.FormatDate(n.CreatedAt))
	}
	return w.Flush()
}

func newNotificationsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireRole(cmd.Context(), false); err != nil {
				return err
			}
			return printNotifications(s.out, s.current(cmd.Context()).Notifications)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRole(cmd.Context(), false); err != nil {
				return err
			}
			s.client.Orchestrator.MarkNotificationRead(cmd.Context(), args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireRole(cmd.Context(), false); err != nil {
				return err
			}
			return s.client.Orchestrator.MarkAllNotificationsRead(cmd.Context())
		},
	})
	return cmd
}

func newPasswdCmd(s *session) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "passwd --current <password> --new <password>",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireSignedIn(cmd.Context()); err != nil {
				return err
			}
			if current == "" || next == "" {
				return errors.New("--current and --new are required")
			}
			return s.client.Orchestrator.ChangePassword(cmd.Context(), current, next)
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}

func newEmployeesCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Administer employees",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireRole(cmd.Context(), true); err != nil {
				return err
			}
			list, err := s.client.Admin.ListEmployees(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDEPARTMENT\tSTATUS")
			for _, e := range list {
				dept := ""
				if e.DepartmentID != nil {
					dept = strconv.Itoa(*e.DepartmentID)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.EmployeeID, e.FullName, e.Email, dept, e.Status)
			}
			return w.Flush()
		},
	})
	return cmd
}

func newPayrollCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "Calculate and report payroll",
	}

	var employeeID int
	report := &cobra.Command{
		Use:   "report",
		Short: "Show the payroll report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireRole(cmd.Context(), true); err != nil {
				return err
			}
			rows, err := s.client.Admin.PayrollReport(cmd.Context(), admin.ReportFilter{EmployeeID: employeeID})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "EMPLOYEE\tMONTH\tBASE\tALLOWANCES\tDEDUCTIONS\tNET\t")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", r.FullName, r.Month,
					s.money(r.BaseSalary), s.money(r.TotalAllowance), s.money(r.TotalDeduction), s.money(r.NetSalary))
			}
			t := model.SumPayroll(rows)
			fmt.Fprintf(w, "TOTAL\t%d rows\t%s\t%s\t%s\t%s\t\n", t.Rows,
				s.money(t.BaseSalary), s.money(t.TotalAllowance), s.money(t.TotalDeduction), s.money(t.NetSalary))
			return w.Flush()
		},
	}
	report.Flags().IntVar(&employeeID, "employee", 0, "only this employee")

	var calcEmployee int
	var month string
	calculate := &cobra.Command{
		Use:   "calculate --employee <id> --month <YYYY-MM-DD>",
		Short: "Calculate one employee's payroll for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.requireRole(cmd.Context(), true); err != nil {
				return err
			}
			if calcEmployee == 0 || month == "" {
				return errors.New("--employee and --month are required")
			}
			res, err := s.client.Admin.CalculatePayroll(cmd.Context(), model.PayrollRequest{EmployeeID: calcEmployee, Month: month})
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "net salary: %s\n", s.money(res.NetSalary))
			return nil
		},
	}
	calculate.Flags().IntVar(&calcEmployee, "employee", 0, "employee id")
	calculate.Flags().StringVar(&month, "month", "", "any date in the month, YYYY-MM-DD")

	payslip := &cobra.Command{
		Use:   "payslip <employee-id> <month>",
		Short: "Show a payslip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.requireRole(cmd.Context(), true); err != nil {
				return err
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("employee id must be a number: %w", err)
			}
			p, err := s.client.Admin.Payslip(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Employee\t%s (#%d)\n", p.FullName, p.EmployeeID)
			fmt.Fprintf(w, "Department\t%s\n", p.DepartmentName)
			fmt.Fprintf(w, "Position\t%s\n", p.PositionName)
			fmt.Fprintf(w, "Month\t%s\n", web.FormatDate(p.Month))
			fmt.Fprintf(w, "Base\t%s\n", s.money(p.BaseSalary))
			fmt.Fprintf(w, "Allowances\t%s\n", s.money(p.TotalAllowance))
			fmt.Fprintf(w, "Deductions\t%s\n", s.money(p.TotalDeduction))
			fmt.Fprintf(w, "Net\t%s\n", s.money(p.NetSalary))
			return w.Flush()
		},
	}

	cmd.AddCommand(report, calculate, payslip)
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
