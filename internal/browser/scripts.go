package browser

const locationScript = `() => document.location.href`

const bodyTextScript = `() => document.body ? document.body.innerText : ''`

const scrollCenterScript = `(el) => {
	el.scrollIntoView({behavior: 'instant', block: 'center', inline: 'center'});
	return true;
}`

// clickScript dispatches a DOM click directly, bypassing the actionability
// checks a real pointer click goes through.
const clickScript = `(el) => {
	el.click();
	return true;
}`

const focusScript = `(el) => {
	el.focus();
	return document.activeElement === el;
}`
