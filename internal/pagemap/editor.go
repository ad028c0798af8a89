package pagemap

// EditorOptionsOff lists the Ace options forced off before replay so that
// typed braces and newlines are not doubled or re-indented by the editor.
var EditorOptionsOff = []string{
	"enableBasicAutocompletion",
	"enableSnippets",
	"enableLiveAutocompletion",
	"wrapBehavioursEnabled",
	"enableMultiselect",
	"behavioursEnabled",
	"enableAutoIndent",
	"showPrintMargin",
}

// ClearEditorScript empties the Ace instance exposed as the txtCode global,
// mirrors the value onto the backing #txtCode field and disables the given
// options. It reports whether the native editor API was reachable.
const ClearEditorScript = `(options) => {
	if (typeof txtCode === 'undefined' || !txtCode || typeof txtCode.getSession !== 'function') {
		return false;
	}
	const session = txtCode.getSession();
	session.setValue('');
	const backing = document.getElementById('txtCode');
	if (backing && 'value' in backing) {
		backing.value = '';
	}
	const off = {};
	for (const name of options) {
		off[name] = false;
	}
	txtCode.setOptions(off);
	if (session.getMode && session.getMode() && session.getMode().$behaviour) {
		session.getMode().$behaviour = null;
	}
	if (typeof txtCode.setBehavioursEnabled === 'function') {
		txtCode.setBehavioursEnabled(false);
	}
	return true;
}`

// ClearBackingFieldScript clears the plain textarea behind the editor.
const ClearBackingFieldScript = `() => {
	const field = document.getElementById('txtCode') || document.querySelector("textarea[name='txtCode']");
	if (!field || !('value' in field)) {
		return false;
	}
	field.value = '';
	return true;
}`
