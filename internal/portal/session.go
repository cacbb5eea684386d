// Package portal drives a headless browser through the university
// registration portal: login (including its arithmetic captcha), the
// offered-courses filters, and seat-row extraction.
//
// The element identifiers below are an external protocol the portal can
// change without notice. Every portal-facing detail stays behind this
// package so a portal change touches nothing else.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AbrarShakhi/wall-e/internal/browser"
	"github.com/AbrarShakhi/wall-e/internal/cdp"
	"github.com/AbrarShakhi/wall-e/pkg/models"
)

const (
	portalURL = "https://portal.ewubd.edu/"

	// Login form element ids.
	idUsername      = "username"
	idPassword      = "pass"
	idCaptchaFirst  = "lblFirstNo"
	idCaptchaSecond = "lblSecondNo"
	idCaptchaAnswer = "lblcaptchaAnswer"
	idSubmit        = "submit"

	// Offered-courses view locators.
	xpathOfferedCoursesLink = `//a[.//strong[text()='Offered Courses']]`
	xpathShowCoursesLink    = `//a[contains(text(), 'Show Offered Courses')]`
	selectorDepartment      = `select[data-ng-model='filterDepartmentId']`
	selectorSemester        = `select[data-ng-model='filterSemesterId']`

	// Table layout: course code, section, ..., seats in the sixth cell.
	seatCellIndex = 5
	minRowCells   = 6

	elementWait  = 15 * time.Second
	filterSettle = 2 * time.Second
	listSettle   = 3 * time.Second
)

// Credentials is what a session needs to authenticate.
type Credentials struct {
	StudentID      string
	PortalPassword string
}

// Runner owns the browser pool and executes portal search sessions.
type Runner struct {
	pool *browser.Pool

	mu     sync.Mutex
	active *browser.Instance
}

func NewRunner(pool *browser.Pool) *Runner {
	return &Runner{pool: pool}
}

// ActivePort reports the Chrome debug port of the search session
// currently running, if any. Used by the debug websocket proxy.
func (r *Runner) ActivePort() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return "", false
	}
	return r.active.Port, true
}

// Run executes one full search session: launch a browser, authenticate,
// filter offered courses, and extract the seat rows. The browser is
// terminated on every exit path. All failures are typed *Error values.
func (r *Runner) Run(ctx context.Context, searchID string, creds Credentials, department, semester string) (rows []models.SeatRow, err error) {
	instance, err := r.pool.Launch(ctx, searchID)
	if err != nil {
		return nil, newError(KindNetwork, "launch browser", err)
	}

	r.mu.Lock()
	r.active = instance
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.active = nil
		r.mu.Unlock()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if stopErr := r.pool.Stop(stopCtx, instance.ContainerID); stopErr != nil {
			log.Printf("[portal] Failed to stop browser %s: %v", instance.ContainerID[:12], stopErr)
		}
	}()

	client, err := cdp.Dial(ctx, instance.Port)
	if err != nil {
		return nil, newError(KindNetwork, "connect browser", err)
	}
	defer client.Close()

	if err := r.login(ctx, client, creds); err != nil {
		return nil, err
	}
	if err := r.openOfferedCourses(ctx, client); err != nil {
		return nil, err
	}
	if err := r.applyFilters(ctx, client, department, semester); err != nil {
		return nil, err
	}
	return r.extractRows(ctx, client)
}

func (r *Runner) login(ctx context.Context, client *cdp.Client, creds Credentials) error {
	if err := client.Navigate(ctx, portalURL, elementWait); err != nil {
		return mapWaitErr("open portal", err)
	}

	if err := client.WaitTrue(ctx, existsByID(idUsername), elementWait); err != nil {
		return mapWaitErr("find login form", err)
	}

	if err := setValueByID(ctx, client, idUsername, creds.StudentID); err != nil {
		return newError(KindElementNotFound, "fill username", err)
	}
	if err := setValueByID(ctx, client, idPassword, creds.PortalPassword); err != nil {
		return newError(KindElementNotFound, "fill password", err)
	}

	answer, err := r.solveCaptcha(ctx, client)
	if err != nil {
		return err
	}
	if err := setValueByID(ctx, client, idCaptchaAnswer, answer); err != nil {
		return newError(KindElementNotFound, "fill captcha answer", err)
	}

	if err := clickByID(ctx, client, idSubmit); err != nil {
		return newError(KindElementNotFound, "submit login", err)
	}

	// The offered-courses link appearing is the signal that login
	// succeeded. If we are still looking at the login form instead,
	// the credentials (or captcha answer) were rejected.
	err = client.WaitTrue(ctx, existsByXPath(xpathOfferedCoursesLink), elementWait)
	if err == nil {
		return nil
	}
	if errors.Is(err, cdp.ErrWaitTimeout) {
		var onLogin bool
		if evalErr := client.EvalInto(ctx, existsByID(idUsername), &onLogin); evalErr == nil && onLogin {
			return newError(KindAuthFailed, "login", fmt.Errorf("portal rejected the credentials"))
		}
		return newError(KindNavigationTimeout, "login", err)
	}
	return newError(KindNetwork, "login", err)
}

// solveCaptcha reads the portal's two operand labels and answers with
// their sum. This is a deterministic arithmetic challenge, not a
// general captcha: if the labels are missing or non-numeric the portal
// changed its mechanism and the session fails fast.
func (r *Runner) solveCaptcha(ctx context.Context, client *cdp.Client) (string, error) {
	first, err := client.EvalString(ctx, textByID(idCaptchaFirst))
	if err != nil {
		return "", newError(KindElementNotFound, "read captcha", err)
	}
	second, err := client.EvalString(ctx, textByID(idCaptchaSecond))
	if err != nil {
		return "", newError(KindElementNotFound, "read captcha", err)
	}

	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return "", newError(KindElementNotFound, "read captcha", fmt.Errorf("operand %q is not a number", first))
	}
	b, err := strconv.Atoi(strings.TrimSpace(second))
	if err != nil {
		return "", newError(KindElementNotFound, "read captcha", fmt.Errorf("operand %q is not a number", second))
	}

	return strconv.Itoa(a + b), nil
}

func (r *Runner) openOfferedCourses(ctx context.Context, client *cdp.Client) error {
	if err := client.WaitTrue(ctx, existsByXPath(xpathOfferedCoursesLink), elementWait); err != nil {
		return mapWaitErr("find offered courses link", err)
	}
	if err := clickByXPath(ctx, client, xpathOfferedCoursesLink); err != nil {
		return newError(KindElementNotFound, "open offered courses", err)
	}

	settle(ctx, filterSettle)
	return nil
}

func (r *Runner) applyFilters(ctx context.Context, client *cdp.Client, department, semester string) error {
	if err := selectByVisibleText(ctx, client, selectorDepartment, department); err != nil {
		return err
	}
	if err := selectByVisibleText(ctx, client, selectorSemester, semester); err != nil {
		return err
	}

	if err := clickByXPath(ctx, client, xpathShowCoursesLink); err != nil {
		return newError(KindElementNotFound, "show offered courses", err)
	}

	settle(ctx, listSettle)
	return nil
}

func (r *Runner) extractRows(ctx context.Context, client *cdp.Client) ([]models.SeatRow, error) {
	script := fmt.Sprintf(`(() => {
		const rows = [];
		for (const tr of document.querySelectorAll("tbody tr")) {
			const cells = tr.querySelectorAll("td");
			if (cells.length < %d) continue;
			rows.push({
				course: cells[0].innerText.trim(),
				section: cells[1].innerText.trim(),
				seats: cells[%d].innerText.trim(),
			});
		}
		return rows;
	})()`, minRowCells, seatCellIndex)

	var rows []models.SeatRow
	if err := client.EvalInto(ctx, script, &rows); err != nil {
		return nil, newError(KindElementNotFound, "extract seat rows", err)
	}

	log.Printf("[portal] Extracted %d offered-course row(s)", len(rows))
	return rows, nil
}

// selectByVisibleText mirrors Selenium's select-by-visible-text: the
// option text must match exactly or the step fails with
// ElementNotFound.
func selectByVisibleText(ctx context.Context, client *cdp.Client, selector, text string) error {
	script := fmt.Sprintf(`(() => {
		const sel = document.querySelector(%s);
		if (!sel) return "no-select";
		for (let i = 0; i < sel.options.length; i++) {
			if (sel.options[i].text.trim() === %s) {
				sel.selectedIndex = i;
				sel.dispatchEvent(new Event("change", { bubbles: true }));
				return "ok";
			}
		}
		return "no-option";
	})()`, jsString(selector), jsString(text))

	status, err := client.EvalString(ctx, script)
	if err != nil {
		return newError(KindNetwork, "select "+selector, err)
	}
	switch status {
	case "ok":
		return nil
	case "no-select":
		return newError(KindElementNotFound, "select "+selector, fmt.Errorf("filter dropdown not on page"))
	default:
		return newError(KindElementNotFound, "select "+selector, fmt.Errorf("no option with visible text %q", text))
	}
}

func setValueByID(ctx context.Context, client *cdp.Client, id, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.getElementById(%s);
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event("input", { bubbles: true }));
		el.dispatchEvent(new Event("change", { bubbles: true }));
		return true;
	})()`, jsString(id), jsString(value))

	var ok bool
	if err := client.EvalInto(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element #%s not on page", id)
	}
	return nil
}

func clickByID(ctx context.Context, client *cdp.Client, id string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.getElementById(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, jsString(id))

	var ok bool
	if err := client.EvalInto(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element #%s not on page", id)
	}
	return nil
}

func clickByXPath(ctx context.Context, client *cdp.Client, xpath string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%s, document, null,
			XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		el.click();
		return true;
	})()`, jsString(xpath))

	var ok bool
	if err := client.EvalInto(ctx, script, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element matches %s", xpath)
	}
	return nil
}

func existsByID(id string) string {
	return fmt.Sprintf(`document.getElementById(%s) !== null`, jsString(id))
}

func existsByXPath(xpath string) string {
	return fmt.Sprintf(`document.evaluate(%s, document, null,
		XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue !== null`, jsString(xpath))
}

func textByID(id string) string {
	return fmt.Sprintf(`(document.getElementById(%s) || { innerText: "" }).innerText`, jsString(id))
}

func mapWaitErr(op string, err error) error {
	if errors.Is(err, cdp.ErrWaitTimeout) {
		return newError(KindNavigationTimeout, op, err)
	}
	return newError(KindNetwork, op, err)
}

func settle(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func jsString(s string) string {
	return strconv.Quote(s)
}
