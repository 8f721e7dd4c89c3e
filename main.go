package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"librarydesk/library"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const dateFormat = "02/01/2006"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:   "librarydesk",
		Short: "Console library management system",
		Long:  "Role-based library management over flat record files: students and faculty borrow, return and reserve books; librarians administer the catalog and membership.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := library.NewLibraryService(dataDir)
			if err != nil {
				return err
			}
			runConsole(svc)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir",
		getEnv("LIBRARYDESK_DATA_DIR", "."), "directory holding the record files")

	report := &cobra.Command{
		Use:   "report",
		Short: "Print the library status report",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := library.NewLibraryService(dataDir)
			if err != nil {
				return err
			}
			rep, err := svc.GenerateSummaryReport()
			if err != nil {
				return err
			}
			printReport(rep)
			return nil
		},
	}
	root.AddCommand(report)

	return root
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// readSecret reads a credential with terminal echo disabled.
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(raw)), nil
}

func prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

// runConsole is the top-level login loop. Operation errors are reported and
// the menu re-prompts; nothing here terminates the process.
func runConsole(svc *library.LibraryService) {
	sc := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nLibrary Management System")
		fmt.Println("1. Login")
		fmt.Println("2. Exit")
		choice, ok := prompt(sc, "Choice: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			id, ok := prompt(sc, "User ID: ")
			if !ok {
				return
			}
			secret, err := readSecret("Password: ")
			if err != nil {
				fmt.Printf("Error reading password: %v\n", err)
				continue
			}
			member, err := svc.Login(id, secret)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			runPortal(sc, svc, member)
		case "2":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Invalid choice")
		}
	}
}

func runPortal(sc *bufio.Scanner, svc *library.LibraryService, member library.Member) {
	switch member.Role {
	case library.RoleStudent:
		studentPortal(sc, svc, member)
	case library.RoleFaculty:
		facultyPortal(sc, svc, member)
	case library.RoleLibrarian:
		librarianPortal(sc, svc, member)
	}
}

func studentPortal(sc *bufio.Scanner, svc *library.LibraryService, member library.Member) {
	for {
		fmt.Printf("\nStudent Portal - %s\n", member.Name)
		fmt.Println("1. View Available Books")
		fmt.Println("2. View Current Loans")
		fmt.Println("3. Borrow Book")
		fmt.Println("4. Return Book")
		fmt.Println("5. Check Fines")
		fmt.Println("6. Reserve Book")
		fmt.Println("7. Logout")
		choice, ok := prompt(sc, "Choice: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			showAvailableBooks(svc)
		case "2":
			showCurrentLoans(svc, member.ID)
		case "3":
			handleBorrow(sc, svc, member.ID)
		case "4":
			handleReturn(sc, svc, member.ID)
		case "5":
			handleFines(svc, member.ID)
		case "6":
			handleReserve(sc, svc, member.ID)
		case "7":
			return
		default:
			fmt.Println("Invalid choice")
		}
	}
}

func facultyPortal(sc *bufio.Scanner, svc *library.LibraryService, member library.Member) {
	for {
		fmt.Printf("\nFaculty Portal - %s\n", member.Name)
		fmt.Println("1. View Available Books")
		fmt.Println("2. View Current Loans")
		fmt.Println("3. Borrow Book")
		fmt.Println("4. Return Book")
		fmt.Println("5. Reserve Book")
		fmt.Println("6. Logout")
		choice, ok := prompt(sc, "Choice: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			showAvailableBooks(svc)
		case "2":
			showCurrentLoans(svc, member.ID)
		case "3":
			handleBorrow(sc, svc, member.ID)
		case "4":
			handleReturn(sc, svc, member.ID)
		case "5":
			handleReserve(sc, svc, member.ID)
		case "6":
			return
		default:
			fmt.Println("Invalid choice")
		}
	}
}

func librarianPortal(sc *bufio.Scanner, svc *library.LibraryService, member library.Member) {
	for {
		fmt.Printf("\nLibrarian Portal - %s\n", member.Name)
		fmt.Println("1. Add User")
		fmt.Println("2. Update User")
		fmt.Println("3. Remove User")
		fmt.Println("4. Add Book")
		fmt.Println("5. Update Book")
		fmt.Println("6. Remove Book")
		fmt.Println("7. View All Loans")
		fmt.Println("8. View Reservations")
		fmt.Println("9. Generate Reports")
		fmt.Println("10. View User Loans")
		fmt.Println("0. Logout")
		choice, ok := prompt(sc, "Choice: ")
		if !ok {
			return
		}

		switch choice {
		case "1":
			handleAddUser(sc, svc)
		case "2":
			handleUpdateUser(sc, svc)
		case "3":
			handleRemoveUser(sc, svc)
		case "4":
			handleAddBook(sc, svc)
		case "5":
			handleUpdateBook(sc, svc)
		case "6":
			handleRemoveBook(sc, svc)
		case "7":
			handleViewAllLoans(svc)
		case "8":
			handleViewReservations(svc)
		case "9":
			handleGenerateReport(svc)
		case "10":
			handleViewUserLoans(sc, svc)
		case "0":
			return
		default:
			fmt.Println("Invalid choice")
		}
	}
}

// ------------------ Member & faculty handlers ------------------

func showAvailableBooks(svc *library.LibraryService) {
	books, err := svc.ListAvailableBooks()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nAvailable Books:")
	if len(books) == 0 {
		fmt.Println("No books available.")
		return
	}
	for i, b := range books {
		fmt.Printf("%d. %s by %s (ISBN: %s)\n", i+1, b.Title, b.Author, b.ISBN)
	}
}

func showCurrentLoans(svc *library.LibraryService, memberID string) {
	loans, err := svc.ListMyLoans(memberID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nCurrent Loans:")
	if len(loans) == 0 {
		fmt.Println("No active loans.")
		return
	}
	for _, l := range loans {
		fmt.Printf("- %s (ISBN: %s) Due: %s\n", l.BookTitle, l.ISBN, l.DueAt.Format(dateFormat))
	}
}

func handleBorrow(sc *bufio.Scanner, svc *library.LibraryService, memberID string) {
	isbn, ok := prompt(sc, "Enter ISBN: ")
	if !ok {
		return
	}
	loan, err := svc.Borrow(memberID, isbn)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Book borrowed successfully! Due: %s\n", loan.DueAt.Format(dateFormat))
}

func handleReturn(sc *bufio.Scanner, svc *library.LibraryService, memberID string) {
	isbn, ok := prompt(sc, "Enter ISBN to return: ")
	if !ok {
		return
	}
	if err := svc.Return(memberID, isbn); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			fmt.Println("No active loan found for this book!")
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		return
	}
	fmt.Println("Book returned successfully!")
}

func handleFines(svc *library.LibraryService, memberID string) {
	total, err := svc.CalculateFine(memberID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Outstanding fines: %.2f\n", total)
}

func handleReserve(sc *bufio.Scanner, svc *library.LibraryService, memberID string) {
	isbn, ok := prompt(sc, "Enter ISBN to reserve: ")
	if !ok {
		return
	}
	if _, err := svc.ReserveHold(memberID, isbn); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Book reserved successfully!")
}

// ------------------ Librarian handlers ------------------

func handleAddUser(sc *bufio.Scanner, svc *library.LibraryService) {
	roleCode, ok := prompt(sc, "Enter User Type (1-Student, 2-Faculty, 3-Librarian): ")
	if !ok {
		return
	}
	role, err := library.ParseRole(roleCode)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	name, ok := prompt(sc, "Enter Name: ")
	if !ok {
		return
	}
	id, ok := prompt(sc, "Enter User ID: ")
	if !ok {
		return
	}
	secret, err := readSecret("Enter Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if err := svc.AddMember(library.Member{Name: name, ID: id, Secret: secret, Role: role}); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("User added successfully!")
}

func handleUpdateUser(sc *bufio.Scanner, svc *library.LibraryService) {
	id, ok := prompt(sc, "Enter User ID to update: ")
	if !ok {
		return
	}
	fieldStr, ok := prompt(sc, "Select field to update:\n1. Name\n2. Password\nChoice: ")
	if !ok {
		return
	}
	field, err := strconv.Atoi(fieldStr)
	if err != nil {
		fmt.Printf("Invalid field: %s\n", fieldStr)
		return
	}
	value, ok := prompt(sc, "Enter new value: ")
	if !ok {
		return
	}
	if err := svc.UpdateMemberField(id, field, value); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("User updated successfully!")
}

func handleRemoveUser(sc *bufio.Scanner, svc *library.LibraryService) {
	id, ok := prompt(sc, "Enter User ID to remove: ")
	if !ok {
		return
	}
	if err := svc.RemoveMember(id); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("User removed successfully!")
}

func handleAddBook(sc *bufio.Scanner, svc *library.LibraryService) {
	title, ok := prompt(sc, "Enter Book Title: ")
	if !ok {
		return
	}
	author, ok := prompt(sc, "Enter Author: ")
	if !ok {
		return
	}
	isbn, ok := prompt(sc, "Enter ISBN: ")
	if !ok {
		return
	}
	publisher, ok := prompt(sc, "Enter Publisher: ")
	if !ok {
		return
	}
	book := library.Book{Title: title, Author: author, ISBN: isbn, Publisher: publisher}
	if err := svc.AddBook(book); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Book added successfully!")
}

func handleUpdateBook(sc *bufio.Scanner, svc *library.LibraryService) {
	isbn, ok := prompt(sc, "Enter ISBN to update: ")
	if !ok {
		return
	}
	b, err := svc.FindBook(isbn)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Current Details:")
	fmt.Printf("1. Title: %s\n", b.Title)
	fmt.Printf("2. Author: %s\n", b.Author)
	fmt.Printf("3. Publisher: %s\n", b.Publisher)
	fieldStr, ok := prompt(sc, "Enter field number to update (1-3): ")
	if !ok {
		return
	}
	field, err := strconv.Atoi(fieldStr)
	if err != nil {
		fmt.Printf("Invalid field: %s\n", fieldStr)
		return
	}
	value, ok := prompt(sc, "Enter new value: ")
	if !ok {
		return
	}
	if err := svc.UpdateBookField(isbn, field, value); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Book updated successfully!")
}

func handleRemoveBook(sc *bufio.Scanner, svc *library.LibraryService) {
	isbn, ok := prompt(sc, "Enter ISBN to remove: ")
	if !ok {
		return
	}
	if err := svc.RemoveBook(isbn); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Book removed and associated records cleaned up.")
}

func handleViewAllLoans(svc *library.LibraryService) {
	loans, err := svc.ListAllOpenLoans()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nAll Active Loans:")
	if len(loans) == 0 {
		fmt.Println("No active loans.")
		return
	}
	for _, l := range loans {
		fmt.Printf("User: %s | Book: %s (ISBN: %s) | Due: %s\n",
			l.MemberID, l.BookTitle, l.ISBN, l.DueAt.Format(dateFormat))
	}
}

func handleViewReservations(svc *library.LibraryService) {
	holds, err := svc.ListReservations()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(holds) == 0 {
		fmt.Println("No active reservations.")
		return
	}
	fmt.Println("\nActive Reservations:")
	for _, r := range holds {
		fmt.Printf("User: %s | Book: %s (ISBN: %s) | Reserved: %s\n",
			r.MemberID, r.BookTitle, r.ISBN, r.ReservedAt.Format("02/01/2006 15:04"))
	}
}

func handleGenerateReport(svc *library.LibraryService) {
	rep, err := svc.GenerateSummaryReport()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printReport(rep)
}

func printReport(rep library.SummaryReport) {
	fmt.Println("\n=== Library Status Report ===")
	fmt.Printf("Total Users: %d\n", rep.TotalMembers)
	fmt.Printf("Total Books: %d\n", rep.TotalBooks)
	fmt.Printf("Available Books: %d\n", rep.AvailableBooks)
	fmt.Printf("Active Loans: %d\n", rep.ActiveLoans)
	fmt.Printf("Active Reservations: %d\n", rep.ActiveReservations)
	fmt.Printf("Estimated Outstanding Fines: %.2f\n", rep.OutstandingFines)
}

func handleViewUserLoans(sc *bufio.Scanner, svc *library.LibraryService) {
	id, ok := prompt(sc, "Enter User ID to view loans: ")
	if !ok {
		return
	}
	loans, err := svc.ListMemberLoanHistory(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("\nLoan History for User: %s\n", id)
	for _, l := range loans {
		status := "Active"
		if l.Closed {
			status = "Returned"
		}
		fmt.Printf("- %s (ISBN: %s)\n  Borrowed: %s | Due: %s | Status: %s\n",
			l.BookTitle, l.ISBN, l.IssuedAt.Format(dateFormat), l.DueAt.Format(dateFormat), status)
	}
}
