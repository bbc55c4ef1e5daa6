package browser

import "fmt"

// maxObserveItems caps how many elements one DOM scan returns. The summary
// builder marks truncation when the scan fills up.
const maxObserveItems = 600

// Highlight borders make the agent's actions visible in headed mode.
const highlightClickScript = `(e) => e.style.border = "3px solid #00FF00"`

const highlightTypeScript = `(e) => e.style.border = "3px solid blue"`

const scrollDownScript = `() => { window.scrollBy(0, window.innerHeight * 0.7); return true; }`

const scrollUpScript = `() => { window.scrollBy(0, -window.innerHeight * 0.7); return true; }`

// observeElementsScript walks the DOM, tags interactive elements with
// data-agent-id and returns a JSON array the Go side turns into the
// numbered summary shown to the model.
var observeElementsScript = fmt.Sprintf(`function() {
    const MAX_ITEMS = %d;

    document.querySelectorAll('[data-agent-id]').forEach(el => el.removeAttribute('data-agent-id'));
    const oldContainer = document.getElementById('agent-ids-overlay');
    if (oldContainer) oldContainer.remove();

    const items = [];
    let idCounter = 1;
    const seen = new Set();

    function isVisible(el) {
        const rect = el.getBoundingClientRect();
        if (rect.width < 1 || rect.height < 1) return false;
        const style = window.getComputedStyle(el);
        return style.visibility !== 'hidden' && style.display !== 'none' && style.opacity !== '0';
    }

    const all = document.body.querySelectorAll('*');

    for (const el of all) {
        if (items.length >= MAX_ITEMS) break;
        if (seen.has(el)) continue;
        if (!isVisible(el)) continue;

        const tagName = el.tagName.toLowerCase();
        const role = el.getAttribute('role');
        const className = (el.className && typeof el.className === 'string') ? el.className.toLowerCase() : "";
        const style = window.getComputedStyle(el);
        const isClickableStyle = style.cursor === 'pointer';

        // Rich text inputs (contenteditable editors, chat boxes).
        const isContentEditable = el.getAttribute('contenteditable') === 'true' || el.isContentEditable;
        const isTextboxRole = role === 'textbox';
        const isPlaceholderText = className.includes('placeholder-text') || className.includes('placeholder');

        if (isContentEditable || isTextboxRole || (isPlaceholderText && isClickableStyle)) {
            if (el.parentElement && seen.has(el.parentElement)) continue;

            seen.add(el);
            const id = idCounter++;
            el.setAttribute('data-agent-id', String(id));

            let t = el.innerText || el.getAttribute('aria-label') || el.getAttribute('placeholder') || "";
            if (!t.trim()) {
                const innerPlaceholder = el.querySelector('.placeholder-text, [class*="placeholder"]');
                if (innerPlaceholder) t = innerPlaceholder.innerText;
            }
            if (isPlaceholderText && !t) t = el.innerText;

            t = t.replace(/[\n\r]+/g, " ").trim().substring(0, 50);
            items.push({ id, tag: 'input', text: "[INPUT] " + (t || "Message Input"), interactive: true });
            continue;
        }

        // Plain inputs and textareas.
        if (tagName === 'input' || tagName === 'textarea') {
            seen.add(el);
            const id = idCounter++;
            el.setAttribute('data-agent-id', String(id));

            if (el.type === 'checkbox' || el.type === 'radio') {
                let label = "";
                if (el.labels && el.labels.length > 0) label = el.labels[0].innerText;
                const state = el.checked ? ' (V)' : ' ( )';
                items.push({ id, tag: 'checkbox', text: "[SELECT] " + (label || "Checkbox") + state, interactive: true });
            } else if (el.type === 'submit' || el.type === 'button') {
                items.push({ id, tag: 'button', text: "[ACTION] " + (el.value || "Button"), interactive: true });
            } else {
                let t = el.placeholder || el.value || "";
                items.push({ id, tag: 'input', text: "[INPUT] " + (t || "Text Field"), interactive: true });
            }
            continue;
        }

        // Custom checkboxes built from divs.
        const isLikelyCheckbox = className.includes('checkbox') || role === 'checkbox' || role === 'radio';
        if (isLikelyCheckbox && !el.querySelector('input')) {
            seen.add(el);
            const id = idCounter++;
            el.setAttribute('data-agent-id', String(id));
            const isSelected = className.includes('active') || className.includes('checked') || el.getAttribute('aria-checked') === 'true';
            const state = isSelected ? ' [V]' : ' [ ]';
            let t = (el.innerText || "").replace(/[\n\r]+/g, " ").trim().substring(0, 50);
            items.push({ id, tag: 'custom-checkbox', text: "[SELECT] " + (t || "Option") + state, interactive: true });
            continue;
        }

        // Links, including href-less SPA navigation.
        if (tagName === 'a') {
            const href = el.getAttribute('href');
            if (!href && !el.getAttribute('onclick') && !role && !isClickableStyle) continue;

            seen.add(el);
            const id = idCounter++;
            el.setAttribute('data-agent-id', String(id));

            let t = el.innerText || el.getAttribute('aria-label') || el.getAttribute('title') || "";
            if (!t) {
                 const img = el.querySelector('img');
                 if (img) t = img.alt || "Image Link";
            }
            t = t.replace(/[\n\r]+/g, " ").trim().substring(0, 50);
            items.push({ id, tag: 'link', text: "[NAVIGATE] " + (t || "Link"), interactive: true });
            continue;
        }

        // Buttons.
        if (tagName === 'button' || role === 'button') {
            seen.add(el);
            const id = idCounter++;
            el.setAttribute('data-agent-id', String(id));
            let t = (el.innerText || el.getAttribute('aria-label') || "Button").replace(/[\n\r]+/g, " ").trim().substring(0, 50);
            items.push({ id, tag: 'button', text: "[ACTION] " + t, interactive: true });
            continue;
        }

        // Other clickable containers (cursor: pointer).
        if ((tagName === 'div' || tagName === 'span' || tagName === 'li' || tagName === 'img' || tagName === 'svg') && isClickableStyle) {
             const rect = el.getBoundingClientRect();
             if (rect.width > 500 && rect.height > 500) continue;

             // Skip if an ancestor is already registered.
             let parent = el.parentElement;
             let parentFound = false;
             while(parent && parent !== document.body) {
                if (seen.has(parent)) { parentFound = true; break; }
                parent = parent.parentElement;
             }
             if (parentFound) continue;

             seen.add(el);
             const id = idCounter++;
             el.setAttribute('data-agent-id', String(id));

             let t = el.innerText || el.getAttribute('alt') || "";
             t = t.replace(/[\n\r]+/g, " ").trim().substring(0, 40);
             items.push({ id, tag: 'clickable', text: "[CLICK] " + (t || "Item"), interactive: true });
        }
    }

    return JSON.stringify(items);
}`, maxObserveItems)
