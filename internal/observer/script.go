// File: internal/observer/script.go
// Description: The injected collection script. Runs inside the page and
// returns a JSON snapshot of the interactive surface. Kept dependency-free
// and side-effect-free so it can run against arbitrary pages.

package observer

// jsCollectSnapshot walks the DOM for interactive candidates and emits a
// snapshot object whose shape matches schemas.PageSnapshot. The limit
// placeholder is substituted with observer.max_elements before injection.
const jsCollectSnapshot = `
(() => {
    const LIMIT = __MAX_ELEMENTS__;
    const SELECTOR = [
        'a[href]', 'button', 'input', 'select', 'textarea',
        '[role=button]', '[role=link]', '[role=textbox]',
        '[role=checkbox]', '[role=radio]', '[role=combobox]',
        '[onclick]', '[tabindex]'
    ].join(',');
    const PANEL_SELECTOR = [
        '[role=dialog]', '[role=alertdialog]', 'dialog[open]',
        '.modal.show', '.modal.in', '.modal[style*="display: block"]'
    ].join(',');

    const clip = (s, n) => {
        if (!s) return '';
        s = s.replace(/\s+/g, ' ').trim();
        return s.length > n ? s.slice(0, n) : s;
    };

    const cssEscape = (s) => (window.CSS && CSS.escape) ? CSS.escape(s) : s;

    // Synthesize a stable locator: prefer id, then name, then data-testid,
    // then an nth-of-type path from the nearest id-bearing ancestor.
    const locatorFor = (el) => {
        if (el.id) return '#' + cssEscape(el.id);
        const name = el.getAttribute('name');
        if (name) return el.tagName.toLowerCase() + '[name="' + name + '"]';
        const testid = el.getAttribute('data-testid');
        if (testid) return '[data-testid="' + testid + '"]';
        const parts = [];
        let node = el;
        while (node && node.nodeType === 1 && node !== document.body) {
            if (node.id) {
                parts.unshift('#' + cssEscape(node.id));
                break;
            }
            let nth = 1, sib = node;
            while ((sib = sib.previousElementSibling)) {
                if (sib.tagName === node.tagName) nth++;
            }
            parts.unshift(node.tagName.toLowerCase() + ':nth-of-type(' + nth + ')');
            node = node.parentElement;
        }
        return parts.join(' > ');
    };

    const labelFor = (el) => {
        const aria = el.getAttribute('aria-label');
        if (aria) return aria;
        const labelledBy = el.getAttribute('aria-labelledby');
        if (labelledBy) {
            const ref = document.getElementById(labelledBy.split(/\s+/)[0]);
            if (ref) return ref.textContent || '';
        }
        if (el.id) {
            const lab = document.querySelector('label[for="' + cssEscape(el.id) + '"]');
            if (lab) return lab.textContent || '';
        }
        const wrap = el.closest('label');
        return wrap ? wrap.textContent || '' : '';
    };

    const visible = (el, rect) => {
        if (rect.width <= 0 || rect.height <= 0) return false;
        const style = window.getComputedStyle(el);
        return style.visibility !== 'hidden' && style.display !== 'none' &&
            parseFloat(style.opacity || '1') > 0.01;
    };

    // The active panel is the last matching overlay in document order that
    // is actually rendered; later dialogs stack on top of earlier ones.
    let activePanel = null;
    for (const p of document.querySelectorAll(PANEL_SELECTOR)) {
        const r = p.getBoundingClientRect();
        if (visible(p, r)) activePanel = p;
    }

    const vw = window.innerWidth || document.documentElement.clientWidth;
    const vh = window.innerHeight || document.documentElement.clientHeight;

    const elements = [];
    let index = 0;
    for (const el of document.querySelectorAll(SELECTOR)) {
        if (elements.length >= LIMIT) break;
        const rect = el.getBoundingClientRect();
        if (!visible(el, rect)) continue;
        if (el.disabled) continue;

        const tag = el.tagName.toLowerCase();
        const isInput = tag === 'input' || tag === 'textarea' || tag === 'select';
        let value = '';
        if (isInput) {
            value = tag === 'select'
                ? (el.selectedOptions && el.selectedOptions[0] ? el.selectedOptions[0].textContent : '')
                : (el.value || '');
        }
        const inputType = tag === 'input' ? (el.type || 'text').toLowerCase() : '';
        if (inputType === 'hidden') continue;
        const isPassword = inputType === 'password';

        elements.push({
            index: index++,
            tag: tag,
            role: el.getAttribute('role') || '',
            text: clip(isInput ? '' : el.innerText, 200),
            label: clip(labelFor(el), 120),
            locator: locatorFor(el),
            rect: {
                x: rect.left + window.scrollX,
                y: rect.top + window.scrollY,
                width: rect.width,
                height: rect.height
            },
            is_input: isInput,
            input_type: inputType,
            placeholder: clip(el.getAttribute('placeholder') || '', 120),
            value: isPassword ? (value ? '***' : '') : clip(value, 120),
            required: !!el.required,
            filled: isInput && value.trim().length > 0,
            in_viewport: rect.bottom > 0 && rect.top < vh && rect.right > 0 && rect.left < vw,
            in_active_panel: !!(activePanel && activePanel.contains(el))
        });
    }

    return {
        url: location.href,
        title: document.title || '',
        elements: elements,
        has_active_panel: !!activePanel
    };
})()
`

// jsShowGuidance draws the highlight ring and instruction bubble for the
// current step, and reports user interaction with the target through the
// __navaiActionDone binding.
const jsShowGuidance = `
((locator, instruction, action) => {
    const OVERLAY_ID = '__navai-guidance';
    const old = document.getElementById(OVERLAY_ID);
    if (old) old.remove();

    let target = null;
    try { target = document.querySelector(locator); } catch (e) { target = null; }
    if (!target) return false;

    target.scrollIntoView({ block: 'center', behavior: 'smooth' });
    const rect = target.getBoundingClientRect();

    const overlay = document.createElement('div');
    overlay.id = OVERLAY_ID;
    overlay.style.cssText =
        'position:absolute;z-index:2147483646;pointer-events:none;' +
        'border:3px solid #7c4dff;border-radius:6px;' +
        'box-shadow:0 0 0 4000px rgba(20,20,40,0.25);' +
        'left:' + (rect.left + window.scrollX - 4) + 'px;' +
        'top:' + (rect.top + window.scrollY - 4) + 'px;' +
        'width:' + (rect.width + 8) + 'px;' +
        'height:' + (rect.height + 8) + 'px;';

    const bubble = document.createElement('div');
    bubble.textContent = instruction;
    bubble.style.cssText =
        'position:absolute;left:0;top:100%;margin-top:8px;' +
        'max-width:320px;padding:8px 12px;' +
        'background:#1e1e2e;color:#f5f5ff;font:13px/1.4 system-ui,sans-serif;' +
        'border-radius:6px;box-shadow:0 4px 14px rgba(0,0,0,0.35);';
    overlay.appendChild(bubble);
    document.body.appendChild(overlay);

    const done = () => {
        cleanup();
        if (window.__navaiActionDone) window.__navaiActionDone(action);
    };
    const cleanup = () => {
        target.removeEventListener('click', onClick, true);
        target.removeEventListener('change', onChange, true);
        target.removeEventListener('blur', onBlur, true);
    };
    const onClick = () => { if (action === 'click') done(); };
    const onChange = () => { if (action === 'select' || action === 'type') done(); };
    const onBlur = () => {
        if (action === 'type' && target.value && target.value.trim()) done();
    };
    target.addEventListener('click', onClick, true);
    target.addEventListener('change', onChange, true);
    target.addEventListener('blur', onBlur, true);
    window.__navaiGuidanceCleanup = cleanup;
    return true;
})(__LOCATOR__, __INSTRUCTION__, __ACTION__)
`

// jsHideGuidance removes the overlay and detaches its listeners.
const jsHideGuidance = `
(() => {
    const old = document.getElementById('__navai-guidance');
    if (old) old.remove();
    if (window.__navaiGuidanceCleanup) {
        window.__navaiGuidanceCleanup();
        delete window.__navaiGuidanceCleanup;
    }
    return true;
})()
`
