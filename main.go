package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"library-catalog/library"

	"golang.org/x/term"
)

const dataDir = "data"

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// authenticate prompts for and verifies a member's password before a
// circulation action runs on their behalf.
func authenticate(mgr *library.Manager, memberID string) error {
	password, err := readPassword("Enter your password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	return mgr.Members.Authenticate(memberID, password)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	mgr, err := library.NewManager(library.Config{DataDir: dataDir, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
		os.Exit(1)
	}

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Welcome to the Library Catalog Manager!")
	fmt.Println("Available commands:")
	fmt.Println("  Catalog: add copy, update copy, remove copy, list inventory, find isbn, search")
	fmt.Println("  Members: add member, list members, reset password")
	fmt.Println("  Circulation: loan, return, reserve, cancel reservation, queue position, history")
	fmt.Println("  Shelves: add shelf, shelve, unshelve, list shelves, optimal shelf")
	fmt.Println("  Reports: value report")
	fmt.Println("  System: exit")

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.TrimSpace(scanner.Text())

		switch cmd {
		case "add copy":
			handleAddCopy(scanner, mgr)
		case "update copy":
			handleUpdateCopy(scanner, mgr)
		case "remove copy":
			handleRemoveCopy(scanner, mgr)
		case "list inventory":
			handleListInventory(mgr)
		case "find isbn":
			handleFindISBN(scanner, mgr)
		case "search":
			handleSearch(scanner, mgr)
		case "add member":
			handleAddMember(scanner, mgr)
		case "list members":
			handleListMembers(mgr)
		case "reset password":
			handleResetPassword(scanner, mgr)
		case "loan":
			handleLoan(scanner, mgr)
		case "return":
			handleReturn(scanner, mgr)
		case "reserve":
			handleReserve(scanner, mgr)
		case "cancel reservation":
			handleCancelReservation(scanner, mgr)
		case "queue position":
			handleQueuePosition(scanner, mgr)
		case "history":
			handleHistory(scanner, mgr)
		case "add shelf":
			handleAddShelf(scanner, mgr)
		case "shelve":
			handleShelve(scanner, mgr)
		case "unshelve":
			handleUnshelve(scanner, mgr)
		case "list shelves":
			handleListShelves(mgr)
		case "optimal shelf":
			handleOptimalShelf(scanner, mgr)
		case "value report":
			handleValueReport(mgr)
		case "exit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown command. Type one of the available commands listed above.")
		}
	}
}

// prompt reads one trimmed line after printing the label.
func prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

func handleAddCopy(sc *bufio.Scanner, mgr *library.Manager) {
	id, ok := prompt(sc, "Copy ID (empty for automatic): ")
	if !ok {
		return
	}
	isbn, ok := prompt(sc, "ISBN: ")
	if !ok {
		return
	}
	title, ok := prompt(sc, "Title: ")
	if !ok {
		return
	}
	author, ok := prompt(sc, "Author: ")
	if !ok {
		return
	}
	weightStr, ok := prompt(sc, "Weight (kg): ")
	if !ok {
		return
	}
	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil {
		fmt.Printf("Invalid weight: %s\n", weightStr)
		return
	}
	valueStr, ok := prompt(sc, "Value: ")
	if !ok {
		return
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		fmt.Printf("Invalid value: %s\n", valueStr)
		return
	}

	c, err := mgr.AddCopy(id, isbn, title, author, weight, value)
	if err != nil {
		fmt.Printf("Error adding copy: %v\n", err)
		return
	}
	fmt.Printf("Added copy %s of %q (ISBN %s)\n", c.ID, c.Title, c.ISBN)
}

func handleUpdateCopy(sc *bufio.Scanner, mgr *library.Manager) {
	id, ok := prompt(sc, "Copy ID: ")
	if !ok {
		return
	}

	var upd library.CopyUpdate
	if v, ok := prompt(sc, "New ISBN (empty to keep): "); ok && v != "" {
		upd.ISBN = &v
	}
	if v, ok := prompt(sc, "New title (empty to keep): "); ok && v != "" {
		upd.Title = &v
	}
	if v, ok := prompt(sc, "New author (empty to keep): "); ok && v != "" {
		upd.Author = &v
	}
	if v, ok := prompt(sc, "New weight (empty to keep): "); ok && v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fmt.Printf("Invalid weight: %s\n", v)
			return
		}
		upd.Weight = &w
	}
	if v, ok := prompt(sc, "New value (empty to keep): "); ok && v != "" {
		val, err := strconv.Atoi(v)
		if err != nil {
			fmt.Printf("Invalid value: %s\n", v)
			return
		}
		upd.Value = &val
	}

	if err := mgr.UpdateCopy(id, upd); err != nil {
		fmt.Printf("Error updating copy: %v\n", err)
		return
	}
	fmt.Printf("Copy %s updated.\n", id)
}

func handleRemoveCopy(sc *bufio.Scanner, mgr *library.Manager) {
	id, ok := prompt(sc, "Copy ID: ")
	if !ok {
		return
	}
	if err := mgr.RemoveCopy(id); err != nil {
		var integrity *library.IntegrityError
		if errors.As(err, &integrity) {
			fmt.Printf("Cannot remove copy: %v\n", integrity)
		} else {
			fmt.Printf("Error removing copy: %v\n", err)
		}
		return
	}
	fmt.Printf("Copy %s removed.\n", id)
}

func handleListInventory(mgr *library.Manager) {
	groups := mgr.Inventory.Groups()
	if len(groups) == 0 {
		fmt.Println("No copies in the catalog.")
		return
	}
	fmt.Printf("%-15s %-30s %-25s %-10s %s\n", "ISBN", "Title", "Author", "Available", "Copies")
	fmt.Println(strings.Repeat("-", 95))
	for _, g := range groups {
		first := g.Copies[0]
		ids := make([]string, len(g.Copies))
		for i, c := range g.Copies {
			ids[i] = c.ID
			if c.OnLoan {
				ids[i] += "*"
			}
		}
		fmt.Printf("%-15s %-30s %-25s %-10d %s\n", g.ISBN(), first.Title, first.Author, g.Available, strings.Join(ids, ", "))
	}
	fmt.Println("(* = on loan)")
}

func handleFindISBN(sc *bufio.Scanner, mgr *library.Manager) {
	isbn, ok := prompt(sc, "ISBN: ")
	if !ok {
		return
	}
	g, err := mgr.Inventory.FindByISBN(isbn)
	if err != nil {
		fmt.Printf("Not found: %v\n", err)
		return
	}
	fmt.Printf("ISBN %s: %q by %s, %d of %d copies available\n",
		g.ISBN(), g.Copies[0].Title, g.Copies[0].Author, g.Available, len(g.Copies))
}

func handleSearch(sc *bufio.Scanner, mgr *library.Manager) {
	fieldStr, ok := prompt(sc, "Search by (title/author): ")
	if !ok {
		return
	}
	field := library.SearchByTitle
	if strings.EqualFold(fieldStr, "author") {
		field = library.SearchByAuthor
	}
	query, ok := prompt(sc, "Query: ")
	if !ok {
		return
	}

	matches := mgr.Inventory.Search(query, field)
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, g := range matches {
		fmt.Printf("  %s  %q by %s (%d available)\n", g.ISBN(), g.Copies[0].Title, g.Copies[0].Author, g.Available)
	}
}

func handleAddMember(sc *bufio.Scanner, mgr *library.Manager) {
	name, ok := prompt(sc, "Name: ")
	if !ok {
		return
	}
	password, err := readPassword(fmt.Sprintf("Enter password for %s: ", name))
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if password == "" {
		fmt.Println("Error: Password cannot be empty")
		return
	}

	m, err := mgr.Members.Register(name, password)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Added member %q with ID %s\n", m.Name, m.ID)
}

func handleListMembers(mgr *library.Manager) {
	members := mgr.Members.All()
	if len(members) == 0 {
		fmt.Println("No members registered.")
		return
	}
	for _, m := range members {
		fmt.Printf("  %-6s %s\n", m.ID, m.Name)
	}
}

func handleResetPassword(sc *bufio.Scanner, mgr *library.Manager) {
	memberID, ok := prompt(sc, "Member ID: ")
	if !ok {
		return
	}
	m, err := mgr.Members.Find(memberID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	newPassword, err := readPassword(fmt.Sprintf("Enter new password for %s (%s): ", m.Name, m.ID))
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if newPassword == "" {
		fmt.Println("Error: Password cannot be empty")
		return
	}
	if err := mgr.Members.ResetPassword(memberID, newPassword); err != nil {
		fmt.Printf("Error resetting password: %v\n", err)
		return
	}
	fmt.Printf("Password successfully reset for %s (%s)\n", m.Name, m.ID)
}

func handleLoan(sc *bufio.Scanner, mgr *library.Manager) {
	memberID, ok := prompt(sc, "Member ID: ")
	if !ok {
		return
	}
	if err := authenticate(mgr, memberID); err != nil {
		fmt.Printf("Authentication failed: %v\n", err)
		return
	}
	isbn, ok := prompt(sc, "ISBN: ")
	if !ok {
		return
	}

	l, err := mgr.IssueLoan(memberID, isbn)
	if err != nil {
		fmt.Printf("Error issuing loan: %v\n", err)
		if errors.Is(err, library.ErrOutOfStock) {
			fmt.Println("Tip: use 'reserve' to queue for this title.")
		}
		return
	}
	fmt.Printf("Loan %s issued: copy %s of ISBN %s to member %s\n", l.ID, l.CopyID, l.ISBN, l.BorrowerID)
}

func handleReturn(sc *bufio.Scanner, mgr *library.Manager) {
	loanID, ok := prompt(sc, "Loan ID: ")
	if !ok {
		return
	}
	l, err := mgr.ReturnLoan(loanID)
	if err != nil {
		fmt.Printf("Error returning loan: %v\n", err)
		return
	}
	fmt.Printf("Loan %s returned (ISBN %s).\n", l.ID, l.ISBN)
}

func handleReserve(sc *bufio.Scanner, mgr *library.Manager) {
	memberID, ok := prompt(sc, "Member ID: ")
	if !ok {
		return
	}
	if err := authenticate(mgr, memberID); err != nil {
		fmt.Printf("Authentication failed: %v\n", err)
		return
	}
	isbn, ok := prompt(sc, "ISBN: ")
	if !ok {
		return
	}

	r, err := mgr.Reserve(memberID, isbn)
	if err != nil {
		fmt.Printf("Error creating reservation: %v\n", err)
		return
	}
	pos := mgr.Reservations.PositionOf(memberID, isbn)
	fmt.Printf("Reservation %s created; you are number %d in the queue for ISBN %s.\n", r.ID, pos, isbn)
}

func handleCancelReservation(sc *bufio.Scanner, mgr *library.Manager) {
	id, ok := prompt(sc, "Reservation ID: ")
	if !ok {
		return
	}
	if err := mgr.Reservations.Cancel(id); err != nil {
		fmt.Printf("Error cancelling reservation: %v\n", err)
		return
	}
	fmt.Printf("Reservation %s cancelled.\n", id)
}

func handleQueuePosition(sc *bufio.Scanner, mgr *library.Manager) {
	memberID, ok := prompt(sc, "Member ID: ")
	if !ok {
		return
	}
	isbn, ok := prompt(sc, "ISBN: ")
	if !ok {
		return
	}
	pos := mgr.Reservations.PositionOf(memberID, isbn)
	if pos == 0 {
		fmt.Println("Not in the queue for that ISBN.")
		return
	}
	fmt.Printf("Member %s is number %d in the queue for ISBN %s.\n", memberID, pos, isbn)
}

func handleHistory(sc *bufio.Scanner, mgr *library.Manager) {
	memberID, ok := prompt(sc, "Member ID: ")
	if !ok {
		return
	}
	entries := mgr.Loans.HistoryOf(memberID)
	if len(entries) == 0 {
		fmt.Println("No loan history.")
		return
	}
	fmt.Println("Most recent first:")
	for _, e := range entries {
		fmt.Printf("  %s  ISBN %-15s issued %s\n", e.LoanID, e.ISBN, e.IssueDate.Format("2006-01-02"))
	}
}

func handleAddShelf(sc *bufio.Scanner, mgr *library.Manager) {
	id, ok := prompt(sc, "Shelf ID (empty for automatic): ")
	if !ok {
		return
	}
	name, ok := prompt(sc, "Name (optional): ")
	if !ok {
		return
	}
	capStr, ok := prompt(sc, fmt.Sprintf("Capacity in kg (max %.1f): ", library.MaxShelfCapacity))
	if !ok {
		return
	}
	capacity, err := strconv.ParseFloat(capStr, 64)
	if err != nil {
		fmt.Printf("Invalid capacity: %s\n", capStr)
		return
	}

	s, err := mgr.Shelves.Create(id, name, capacity)
	if err != nil {
		fmt.Printf("Error creating shelf: %v\n", err)
		return
	}
	fmt.Printf("Shelf %s created (capacity %.1f kg).\n", s.ID, s.Capacity)
}

func handleShelve(sc *bufio.Scanner, mgr *library.Manager) {
	shelfID, ok := prompt(sc, "Shelf ID: ")
	if !ok {
		return
	}
	copyID, ok := prompt(sc, "Copy ID: ")
	if !ok {
		return
	}
	if err := mgr.PlaceOnShelf(shelfID, copyID); err != nil {
		fmt.Printf("Error shelving copy: %v\n", err)
		return
	}
	fmt.Printf("Copy %s placed on shelf %s.\n", copyID, shelfID)
}

func handleUnshelve(sc *bufio.Scanner, mgr *library.Manager) {
	shelfID, ok := prompt(sc, "Shelf ID: ")
	if !ok {
		return
	}
	copyID, ok := prompt(sc, "Copy ID: ")
	if !ok {
		return
	}
	if err := mgr.Shelves.Take(shelfID, copyID); err != nil {
		fmt.Printf("Error removing copy from shelf: %v\n", err)
		return
	}
	fmt.Printf("Copy %s removed from shelf %s.\n", copyID, shelfID)
}

func handleListShelves(mgr *library.Manager) {
	shelves := mgr.Shelves.All()
	if len(shelves) == 0 {
		fmt.Println("No shelves.")
		return
	}
	for _, s := range shelves {
		fmt.Printf("  %-6s %-20s %.2f/%.2f kg, %d copies\n", s.ID, s.Name, s.TotalWeight(), s.Capacity, len(s.Copies))
	}
}

func handleOptimalShelf(sc *bufio.Scanner, mgr *library.Manager) {
	capStr, ok := prompt(sc, fmt.Sprintf("Capacity in kg (max %.1f): ", library.MaxShelfCapacity))
	if !ok {
		return
	}
	capacity, err := strconv.ParseFloat(capStr, 64)
	if err != nil {
		fmt.Printf("Invalid capacity: %s\n", capStr)
		return
	}

	picked, total := mgr.OptimalPlacement(capacity)
	if len(picked) == 0 {
		fmt.Println("No combination of copies fits.")
		return
	}
	fmt.Printf("Best placement (total value %d):\n", total)
	var weight float64
	for _, c := range picked {
		weight += c.Weight
		fmt.Printf("  %-6s %-30s %.2f kg  value %d\n", c.ID, c.Title, c.Weight, c.Value)
	}
	fmt.Printf("Total weight: %.2f kg\n", weight)
}

func handleValueReport(mgr *library.Manager) {
	copies := mgr.ValueReport()
	if len(copies) == 0 {
		fmt.Println("No copies in the catalog.")
		return
	}
	fmt.Printf("%-6s %-30s %-15s %s\n", "ID", "Title", "ISBN", "Value")
	fmt.Println(strings.Repeat("-", 60))
	for _, c := range copies {
		fmt.Printf("%-6s %-30s %-15s %d\n", c.ID, c.Title, c.ISBN, c.Value)
	}
}
