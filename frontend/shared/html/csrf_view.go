package html

// CSRFCookieName is the double-submit cookie the server sets on every page.
const CSRFCookieName = "X-CSRF-Token"

// CSRFFormScript adds the _csrf field to every POST form, including multipart
// uploads, and disables a form's buttons once it is submitted so a slow
// readings submission is not posted twice.
func CSRFFormScript() string {
	return `<script>
(function () {
  function cookie(name) {
    var parts = document.cookie ? document.cookie.split(";") : [];
    for (var i = 0; i < parts.length; i++) {
      var kv = parts[i].trim().split("=");
      if (kv[0] === name) return decodeURIComponent(kv.slice(1).join("="));
    }
    return "";
  }

  function prepare() {
    var token = cookie("` + CSRFCookieName + `");
    var forms = document.querySelectorAll("form");
    for (var i = 0; i < forms.length; i++) {
      var form = forms[i];
      if ((form.getAttribute("method") || "GET").toUpperCase() !== "POST") continue;
      if (token && !form.querySelector("input[name='_csrf']")) {
        var input = document.createElement("input");
        input.type = "hidden";
        input.name = "_csrf";
        input.value = token;
        form.appendChild(input);
      }
      form.addEventListener("submit", function (ev) {
        var buttons = ev.target.querySelectorAll("button[type='submit']");
        for (var j = 0; j < buttons.length; j++) buttons[j].disabled = true;
      });
    }
  }

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", prepare);
  } else {
    prepare();
  }
})();
</script>`
}
